package runtime_test

import (
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/runtime"
)

func TestNewFromEnvHonorsArnmWorkersOverride(t *testing.T) {
	t.Setenv("ARNM_WORKERS", "3")
	s := runtime.NewFromEnv()

	assert.NotPanics(t, func() { s.RunCount(2) }, "ARNM_WORKERS=3 should size a third worker")
}

func TestNewFromEnvIgnoresGarbageAndFallsBackToCPUCount(t *testing.T) {
	t.Setenv("ARNM_WORKERS", "not-a-number")
	s := runtime.NewFromEnv()

	assert.NotPanics(t, func() { s.RunCount(0) }, "a garbage override should still size at least one worker")
}

func TestArnmPrintIntWritesDecimalAndNewline(t *testing.T) {
	// ArnmPrintInt writes straight to stdout, so capture os.Stdout
	// through a pipe for the duration of the calls.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	func() {
		defer func() { os.Stdout = orig }()
		runtime.ArnmPrintInt(0)
		runtime.ArnmPrintInt(-7)
		runtime.ArnmPrintInt(1 << 40)
	}()
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0\n-7\n1099511627776\n", string(out))
}

func TestSpawnedProcessRunsItsEntryToCompletion(t *testing.T) {
	s := runtime.New(1)
	done := make(chan struct{})
	s.Spawn(func(self *runtime.Process, arg uint64) {
		close(done)
	}, 0, 0)

	s.Run()

	select {
	case <-done:
	default:
		t.Fatal("entry never ran")
	}
}

func TestReceiveReturnsAnAlreadyQueuedMessageWithoutParking(t *testing.T) {
	s := runtime.New(1)
	result := make(chan int64, 1)
	entry := func(self *runtime.Process, arg uint64) {
		msg := runtime.ArnmReceive(self)
		result <- msg.Tag
	}
	p := s.Spawn(entry, 0, 0)
	s.ArnmSend(p, 42, nil)

	s.Run()

	select {
	case tag := <-result:
		assert.Equal(t, int64(42), tag)
	default:
		t.Fatal("process never reported a received message")
	}
}

// TestReceiveParksThenWakesOnSend exercises the park/wake transition:
// the process blocks in Receive on an empty mailbox, moves to the
// scheduler's wait set, and is moved back to Ready (and re-enqueued)
// once a message arrives.
func TestReceiveParksThenWakesOnSend(t *testing.T) {
	s := runtime.New(1)
	result := make(chan int64, 1)
	entry := func(self *runtime.Process, arg uint64) {
		msg := runtime.ArnmReceive(self)
		result <- msg.Tag
	}
	p := s.Spawn(entry, 0, 0)

	go s.Run()
	time.Sleep(20 * time.Millisecond) // let the process park on the empty mailbox
	s.ArnmSend(p, 7, nil)

	select {
	case tag := <-result:
		assert.Equal(t, int64(7), tag)
	case <-time.After(2 * time.Second):
		t.Fatal("process never woke from a parked receive")
	}
}

func TestMultipleMessagesToOneProcessArriveInSendOrder(t *testing.T) {
	s := runtime.New(1)
	result := make(chan []int64, 1)
	entry := func(self *runtime.Process, arg uint64) {
		var tags []int64
		for i := 0; i < 3; i++ {
			tags = append(tags, runtime.ArnmReceive(self).Tag)
		}
		result <- tags
	}
	p := s.Spawn(entry, 0, 0)
	s.ArnmSend(p, 1, nil)
	s.ArnmSend(p, 2, nil)
	s.ArnmSend(p, 3, nil)

	s.Run()

	select {
	case tags := <-result:
		assert.Equal(t, []int64{1, 2, 3}, tags)
	default:
		t.Fatal("process never reported all three messages")
	}
}

// TestWorkStealingSpreadsRunsAcrossWorkers spawns many yield-heavy
// processes on a two-worker scheduler and checks that both workers'
// run_count grows, per spec §8's work-stealing testable property.
func TestWorkStealingSpreadsRunsAcrossWorkers(t *testing.T) {
	s := runtime.New(2)
	const procs = 64
	const turns = 5

	var done sync.WaitGroup
	done.Add(procs)
	for i := 0; i < procs; i++ {
		s.Spawn(func(self *runtime.Process, arg uint64) {
			for t := 0; t < turns; t++ {
				self.Yield()
			}
			done.Done()
		}, 0, 0)
	}

	s.Run()
	done.Wait()

	require.Greater(t, s.RunCount(0)+s.RunCount(1), int64(0))
	assert.Greater(t, s.RunCount(0), int64(0))
	assert.Greater(t, s.RunCount(1), int64(0))
}
