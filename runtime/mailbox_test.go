package runtime_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/runtime"
)

func TestMailboxTryReceiveOnEmptyReturnsFalse(t *testing.T) {
	mb := runtime.NewMailbox()
	msg, ok := mb.TryReceive()
	assert.False(t, ok)
	assert.Nil(t, msg)
	assert.Equal(t, int64(0), mb.Len())
}

func TestMailboxFIFOOrderingForASinglePair(t *testing.T) {
	mb := runtime.NewMailbox()
	mb.Send(&runtime.Message{Tag: 1})
	mb.Send(&runtime.Message{Tag: 2})
	mb.Send(&runtime.Message{Tag: 3})

	var got []int64
	for {
		msg, ok := mb.TryReceive()
		if !ok {
			break
		}
		got = append(got, msg.Tag)
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestMailboxLenTracksOutstandingMessages(t *testing.T) {
	mb := runtime.NewMailbox()
	mb.Send(&runtime.Message{Tag: 1})
	mb.Send(&runtime.Message{Tag: 2})
	assert.Equal(t, int64(2), mb.Len())
	_, ok := mb.TryReceive()
	require.True(t, ok)
	assert.Equal(t, int64(1), mb.Len())
}

// TestMailboxIsSafeUnderConcurrentProducers exercises the MPSC property
// spec §8 calls out: many concurrent senders, one consumer draining
// via TryReceive, and every sent message accounted for exactly once.
func TestMailboxIsSafeUnderConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 200
	mb := runtime.NewMailbox()

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				mb.Send(&runtime.Message{Tag: int64(p*perProducer + i)})
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[int64]bool, producers*perProducer)
	for {
		msg, ok := mb.TryReceive()
		if !ok {
			break
		}
		require.False(t, seen[msg.Tag], "duplicate delivery of tag %d", msg.Tag)
		seen[msg.Tag] = true
	}
	assert.Len(t, seen, producers*perProducer)
	assert.Equal(t, int64(0), mb.Len())
}
