package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/parser"
)

func parse(t *testing.T, src string) *ast.Node {
	t.Helper()
	arena := ast.NewArena()
	p := parser.New([]byte(src), arena)
	prog := p.Parse()
	require.False(t, p.HadError(), "%v", p.Diagnostics())
	return prog
}

func TestParsesSimpleFunction(t *testing.T) {
	prog := parse(t, `fn add(a: i32, b: i32) -> i32 { return a + b; }`)
	require.Len(t, prog.Items, 1)
	fn := prog.Items[0]
	assert.Equal(t, ast.FuncDecl, fn.Kind)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	require.Len(t, fn.Body.Items, 1)
	assert.Equal(t, ast.ReturnStmt, fn.Body.Items[0].Kind)
}

func TestArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 should bind as 1 + (2 * 3), not (1 + 2) * 3.
	prog := parse(t, `fn f() { 1 + 2 * 3; }`)
	expr := prog.Items[0].Body.Items[0].X
	require.Equal(t, ast.BinaryExpr, expr.Kind)
	assert.Equal(t, "+", expr.Name)
	assert.Equal(t, ast.BinaryExpr, expr.Y.Kind)
	assert.Equal(t, "*", expr.Y.Name)
	assert.Equal(t, ast.IntLit, expr.X.Kind)
}

func TestSendBindsLooserThanArithmeticTighterThanRelational(t *testing.T) {
	// a ! 1 + 2 parses as a ! (1 + 2): send is below +/- in the table.
	prog := parse(t, `fn f() { a ! 1 + 2; }`)
	expr := prog.Items[0].Body.Items[0].X
	require.Equal(t, ast.SendExpr, expr.Kind)
	assert.Equal(t, ast.IdentExpr, expr.X.Kind)
	assert.Equal(t, ast.BinaryExpr, expr.Y.Kind)
}

func TestSendIsValidAtStatementPosition(t *testing.T) {
	prog := parse(t, `actor Foo { fn bar() { self ! 1; } }`)
	actor := prog.Items[0]
	require.Equal(t, ast.ActorDecl, actor.Kind)
	method := actor.Items[0]
	stmt := method.Body.Items[0]
	require.Equal(t, ast.ExprStmt, stmt.Kind)
	assert.Equal(t, ast.SendExpr, stmt.X.Kind)
	assert.Equal(t, ast.SelfExpr, stmt.X.X.Kind)
}

func TestActorWithFieldsMethodsAndReceive(t *testing.T) {
	src := `
actor Counter {
	let mut count: i32 = 0;

	fn bump() {
		count = count + 1;
	}

	receive {
		1 => { bump(); }
		n => { count = n; }
	}
}`
	prog := parse(t, src)
	require.Len(t, prog.Items, 1)
	actor := prog.Items[0]
	require.Equal(t, ast.ActorDecl, actor.Kind)
	var sawField, sawMethod, sawReceive bool
	for _, item := range actor.Items {
		switch item.Kind {
		case ast.FieldDecl:
			sawField = true
			assert.Equal(t, "count", item.Name)
			assert.True(t, item.Mutable)
		case ast.FuncDecl:
			sawMethod = true
			assert.Equal(t, "bump", item.Name)
		case ast.ReceiveStmt:
			sawReceive = true
			require.Len(t, item.Items, 2)
			assert.Equal(t, ast.IntLit, item.Items[0].Pattern.Kind)
			assert.Equal(t, ast.IdentExpr, item.Items[1].Pattern.Kind)
		}
	}
	assert.True(t, sawField)
	assert.True(t, sawMethod)
	assert.True(t, sawReceive)
}

func TestSpawnStatementAndExpression(t *testing.T) {
	prog := parse(t, `fn f() { spawn Worker(); let mut w = spawn Worker(); }`)
	body := prog.Items[0].Body
	require.Len(t, body.Items, 2)
	assert.Equal(t, ast.SpawnStmt, body.Items[0].Kind)
	assert.Equal(t, ast.SpawnExpr, body.Items[1].X.Kind)
}

func TestIfElseIfChain(t *testing.T) {
	prog := parse(t, `fn f() { if a { } else if b { } else { } }`)
	ifStmt := prog.Items[0].Body.Items[0]
	require.Equal(t, ast.IfStmt, ifStmt.Kind)
	require.NotNil(t, ifStmt.Else)
	assert.Equal(t, ast.IfStmt, ifStmt.Else.Kind)
	require.NotNil(t, ifStmt.Else.Else)
	assert.Equal(t, ast.BlockStmt, ifStmt.Else.Else.Kind)
}

func TestUnterminatedBlockRecordsDiagnosticWithPosition(t *testing.T) {
	arena := ast.NewArena()
	p := parser.New([]byte("fn f() { let x = 1;"), arena)
	p.Parse()
	require.True(t, p.HadError())
	diags := p.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Greater(t, diags[0].Span().Line, 0)
}

func TestOptionalAndArrayTypeSuffixes(t *testing.T) {
	prog := parse(t, `fn f(a: i32[], b: i32?) { }`)
	params := prog.Items[0].Params
	require.Len(t, params, 2)
	assert.True(t, params[0].Type.IsArray)
	assert.True(t, params[1].Type.IsOption)
}
