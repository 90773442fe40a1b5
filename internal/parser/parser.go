// Package parser implements ARNm's recursive-descent/Pratt parser
// (spec §4.2, C4): declarations and statements by recursive descent,
// expressions by precedence climbing, panic-mode error recovery.
// Grounded in the teacher's Parser (std/compiler/parser.go): the same
// advance/at/expect cursor shape (here over the lexer's token stream)
// and the same precedence-climbing binary-expression parser, generalized to ARNm's
// statement/declaration grammar and actor primitives, and with
// panic-mode synchronization added (the teacher's parser only appends
// to an error slice and keeps going token-by-token with no sync step,
// which risks cascades on realistic programs).
package parser

import (
	"fmt"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/diag"
	"github.com/arnm-lang/arnm/internal/lexer"
	"github.com/arnm-lang/arnm/internal/token"
)

// Parser turns a token stream into an AST. Diagnostics accumulate in
// an internal diag.Bag (read via Diagnostics); Parse returns the Program root regardless of errors so
// callers can inspect partial results, but HadError reports whether
// any were recorded.
type Parser struct {
	lex    *lexer.Lexer
	arena  *ast.Arena
	errors diag.Bag

	cur   token.Token
	panic bool
}

// New creates a Parser reading from src, allocating nodes into arena.
func New(src []byte, arena *ast.Arena) *Parser {
	p := &Parser{lex: lexer.New(src), arena: arena}
	p.cur = p.lex.Next()
	return p
}

// HadError reports whether any diagnostic was recorded.
func (p *Parser) HadError() bool { return p.errors.HasErrors() }

// Diagnostics returns accumulated diagnostics sorted by position.
func (p *Parser) Diagnostics() []diag.Diagnostic { return p.errors.Sorted() }

func (p *Parser) advance() token.Token {
	tok := p.cur
	p.cur = p.lex.Next()
	return tok
}

func (p *Parser) at(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.cur.Kind == k {
			return true
		}
	}
	return false
}

func (p *Parser) errorf(span token.Span, format string, args ...any) {
	if p.panic {
		return
	}
	p.panic = true
	p.errors.Add(fmt.Sprintf(format, args...), span)
}

// expect consumes the current token if it matches kind, else reports
// an error and enters panic mode without consuming.
func (p *Parser) expect(kind token.Kind) token.Token {
	if p.cur.Kind == kind {
		return p.advance()
	}
	p.errorf(p.cur.Span, "expected %s, got %s", kind, p.cur)
	return p.cur
}

// synchronize skips tokens until a statement/declaration boundary: a
// semicolon just consumed, or a keyword that starts a new
// declaration/statement (spec §4.2).
func (p *Parser) synchronize() {
	for !p.at(token.EOF) {
		if p.cur.Kind == token.SEMI {
			p.advance()
			p.panic = false
			return
		}
		switch p.cur.Kind {
		case token.FN, token.ACTOR, token.STRUCT, token.LET, token.IF, token.WHILE,
			token.FOR, token.LOOP, token.RETURN, token.BREAK, token.CONTINUE,
			token.SPAWN, token.RECEIVE, token.RBRACE:
			p.panic = false
			return
		}
		p.advance()
	}
	p.panic = false
}

// Parse parses a complete program (spec grammar: `program = {
// declaration }`).
func (p *Parser) Parse() *ast.Node {
	start := p.cur.Span
	var decls []*ast.Node
	for !p.at(token.EOF) {
		d := p.parseDecl()
		if d != nil {
			decls = append(decls, d)
		}
		if p.panic {
			p.synchronize()
		}
		if p.errors.Full() {
			break
		}
	}
	end := start
	end.End = p.cur.Span.End
	return p.arena.NewProgram(end, decls)
}

func (p *Parser) parseDecl() *ast.Node {
	switch p.cur.Kind {
	case token.FN:
		return p.parseFuncDecl()
	case token.ACTOR:
		return p.parseActorDecl()
	case token.STRUCT:
		return p.parseStructDecl()
	default:
		tok := p.advance()
		p.errorf(tok.Span, "expected declaration, got %s", tok)
		return nil
	}
}

func (p *Parser) parseFuncDecl() *ast.Node {
	start := p.cur.Span
	p.expect(token.FN)
	name := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	var params []ast.Param
	if !p.at(token.RPAREN) {
		params = p.parseParamList()
	}
	p.expect(token.RPAREN)
	var ret *ast.Node
	if p.at(token.ARROW) {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()
	span := start
	span.End = body.Span.End
	return p.arena.NewFuncDecl(span, string(name.Lexeme), params, ret, body)
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	params = append(params, p.parseParam())
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RPAREN) {
			break
		}
		params = append(params, p.parseParam())
	}
	return params
}

func (p *Parser) parseParam() ast.Param {
	start := p.cur.Span
	mutable := false
	if p.at(token.MUT) {
		p.advance()
		mutable = true
	}
	name := p.expect(token.IDENT)
	p.expect(token.COLON)
	typ := p.parseType()
	span := start
	span.End = typ.Span.End
	return ast.Param{Name: string(name.Lexeme), Mutable: mutable, Type: typ, Span: span}
}

// parseType implements `type = IDENT [ "?" | "[" "]" ] | "fn" "("
// [type_list] ")" ["->" type]`.
func (p *Parser) parseType() *ast.Node {
	start := p.cur.Span
	if p.at(token.FN) {
		p.advance()
		p.expect(token.LPAREN)
		var params []*ast.Node
		if !p.at(token.RPAREN) {
			params = append(params, p.parseType())
			for p.at(token.COMMA) {
				p.advance()
				if p.at(token.RPAREN) {
					break
				}
				params = append(params, p.parseType())
			}
		}
		p.expect(token.RPAREN)
		var ret *ast.Node
		if p.at(token.ARROW) {
			p.advance()
			ret = p.parseType()
		}
		return p.arena.NewFnTypeName(start, params, ret)
	}
	name := p.expect(token.IDENT)
	span := start
	isArray, isOption := false, false
	if p.at(token.LBRACK) {
		p.advance()
		p.expect(token.RBRACK)
		isArray = true
		span.End = p.cur.Span.End
	} else if p.at(token.QUESTION) {
		p.advance()
		isOption = true
		span.End = p.cur.Span.End
	}
	return p.arena.NewTypeName(span, string(name.Lexeme), isArray, isOption)
}

func (p *Parser) parseActorDecl() *ast.Node {
	start := p.cur.Span
	p.expect(token.ACTOR)
	name := p.expect(token.IDENT)
	p.expect(token.LBRACE)
	var items []*ast.Node
	for !p.at(token.RBRACE, token.EOF) {
		items = append(items, p.parseActorItem())
		if p.panic {
			p.synchronize()
		}
	}
	end := p.expect(token.RBRACE)
	span := start
	span.End = end.Span.End
	return p.arena.NewActorDecl(span, string(name.Lexeme), items)
}

func (p *Parser) parseActorItem() *ast.Node {
	switch p.cur.Kind {
	case token.LET:
		return p.parseLetField()
	case token.FN:
		return p.parseFuncDecl()
	case token.RECEIVE:
		return p.parseReceiveStmt()
	default:
		tok := p.advance()
		p.errorf(tok.Span, "expected field, method, or receive block, got %s", tok)
		return nil
	}
}

func (p *Parser) parseLetField() *ast.Node {
	start := p.cur.Span
	p.expect(token.LET)
	if p.at(token.MUT) {
		p.advance()
	}
	name := p.expect(token.IDENT)
	p.expect(token.COLON)
	typ := p.parseType()
	var init *ast.Node
	if p.at(token.ASSIGN) {
		p.advance()
		init = p.parseExpr()
	}
	end := p.expect(token.SEMI)
	span := start
	span.End = end.Span.End
	return p.arena.NewFieldDecl(span, string(name.Lexeme), true, typ, init)
}

func (p *Parser) parseStructDecl() *ast.Node {
	start := p.cur.Span
	p.expect(token.STRUCT)
	name := p.expect(token.IDENT)
	p.expect(token.LBRACE)
	var items []*ast.Node
	if !p.at(token.RBRACE) {
		items = append(items, p.parseStructField())
		for p.at(token.COMMA) {
			p.advance()
			if p.at(token.RBRACE) {
				break
			}
			items = append(items, p.parseStructField())
		}
	}
	end := p.expect(token.RBRACE)
	span := start
	span.End = end.Span.End
	return p.arena.NewStructDecl(span, string(name.Lexeme), items)
}

func (p *Parser) parseStructField() *ast.Node {
	start := p.cur.Span
	mutable := false
	if p.at(token.MUT) {
		p.advance()
		mutable = true
	}
	name := p.expect(token.IDENT)
	p.expect(token.COLON)
	typ := p.parseType()
	span := start
	span.End = typ.Span.End
	return p.arena.NewFieldDecl(span, string(name.Lexeme), mutable, typ, nil)
}

func (p *Parser) parseBlock() *ast.Node {
	start := p.expect(token.LBRACE)
	var stmts []*ast.Node
	for !p.at(token.RBRACE, token.EOF) {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.panic {
			p.synchronize()
		}
	}
	end := p.expect(token.RBRACE)
	span := start.Span
	span.End = end.Span.End
	return p.arena.NewBlockStmt(span, stmts)
}

func (p *Parser) parseStmt() *ast.Node {
	switch p.cur.Kind {
	case token.LET:
		return p.parseLetStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.LOOP:
		return p.parseLoopStmt()
	case token.BREAK:
		tok := p.advance()
		end := p.expect(token.SEMI)
		span := tok.Span
		span.End = end.Span.End
		return p.arena.NewBreakStmt(span)
	case token.CONTINUE:
		tok := p.advance()
		end := p.expect(token.SEMI)
		span := tok.Span
		span.End = end.Span.End
		return p.arena.NewContinueStmt(span)
	case token.SPAWN:
		return p.parseSpawnStmt()
	case token.RECEIVE:
		return p.parseReceiveStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		start := p.cur.Span
		e := p.parseExpr()
		end := p.expect(token.SEMI)
		span := start
		span.End = end.Span.End
		return p.arena.NewExprStmt(span, e)
	}
}

func (p *Parser) parseLetStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.LET)
	mutable := false
	if p.at(token.MUT) {
		p.advance()
		mutable = true
	}
	name := p.expect(token.IDENT)
	var typ *ast.Node
	if p.at(token.COLON) {
		p.advance()
		typ = p.parseType()
	}
	var init *ast.Node
	if p.at(token.ASSIGN) {
		p.advance()
		init = p.parseExpr()
	}
	end := p.expect(token.SEMI)
	span := start
	span.End = end.Span.End
	return p.arena.NewLetStmt(span, string(name.Lexeme), mutable, typ, init)
}

func (p *Parser) parseReturnStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.RETURN)
	var value *ast.Node
	if !p.at(token.SEMI) {
		value = p.parseExpr()
	}
	end := p.expect(token.SEMI)
	span := start
	span.End = end.Span.End
	return p.arena.NewReturnStmt(span, value)
}

func (p *Parser) parseIfStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.IF)
	cond := p.parseExpr()
	then := p.parseBlock()
	var els *ast.Node
	if p.at(token.ELSE) {
		p.advance()
		if p.at(token.IF) {
			els = p.parseIfStmt()
		} else {
			els = p.parseBlock()
		}
	}
	span := start
	if els != nil {
		span.End = els.Span.End
	} else {
		span.End = then.Span.End
	}
	return p.arena.NewIfStmt(span, cond, then, els)
}

func (p *Parser) parseWhileStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.WHILE)
	cond := p.parseExpr()
	body := p.parseBlock()
	span := start
	span.End = body.Span.End
	return p.arena.NewWhileStmt(span, cond, body)
}

func (p *Parser) parseForStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.FOR)
	name := p.expect(token.IDENT)
	p.expect(token.IN)
	iterable := p.parseExpr()
	body := p.parseBlock()
	span := start
	span.End = body.Span.End
	return p.arena.NewForStmt(span, string(name.Lexeme), iterable, body)
}

func (p *Parser) parseLoopStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.LOOP)
	body := p.parseBlock()
	span := start
	span.End = body.Span.End
	return p.arena.NewLoopStmt(span, body)
}

func (p *Parser) parseSpawnStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.SPAWN)
	e := p.parseExpr()
	end := p.expect(token.SEMI)
	span := start
	span.End = end.Span.End
	return p.arena.NewSpawnStmt(span, e)
}

func (p *Parser) parseReceiveStmt() *ast.Node {
	start := p.cur.Span
	p.expect(token.RECEIVE)
	p.expect(token.LBRACE)
	var arms []*ast.Node
	for !p.at(token.RBRACE, token.EOF) {
		arms = append(arms, p.parseReceiveArm())
		if p.panic {
			p.synchronize()
		}
	}
	end := p.expect(token.RBRACE)
	span := start
	span.End = end.Span.End
	return p.arena.NewReceiveStmt(span, arms)
}

func (p *Parser) parseReceiveArm() *ast.Node {
	start := p.cur.Span
	var pattern *ast.Node
	switch p.cur.Kind {
	case token.IDENT:
		tok := p.advance()
		pattern = p.arena.NewIdentExpr(tok.Span, string(tok.Lexeme))
	case token.INT:
		tok := p.advance()
		pattern = p.arena.NewIntLit(tok.Span, string(tok.Lexeme))
	default:
		tok := p.advance()
		p.errorf(tok.Span, "expected identifier or integer pattern, got %s", tok)
		pattern = p.arena.NewIdentExpr(tok.Span, "_")
	}
	p.expect(token.FATARROW)
	body := p.parseBlock()
	span := start
	span.End = body.Span.End
	return p.arena.NewReceiveArm(span, pattern, body)
}

// Expression parsing: Pratt/precedence-climbing per spec §4.2.
//
// Levels, lowest to highest: assign (right-assoc) < || < && < == != <
// relational < ! (send, infix) < + - < * / % ; unary and postfix bind
// tighter still and are handled outside the precedence table.

func binPrec(k token.Kind) int {
	switch k {
	case token.OROR:
		return 1
	case token.ANDAND:
		return 2
	case token.EQ, token.NEQ:
		return 3
	case token.LT, token.LE, token.GT, token.GE:
		return 4
	case token.BANG:
		return 5
	case token.PLUS, token.MINUS:
		return 6
	case token.STAR, token.SLASH, token.PERCENT:
		return 7
	}
	return 0
}

var assignOps = map[token.Kind]bool{
	token.ASSIGN: true, token.PLUS_ASSIGN: true, token.MINUS_ASSIGN: true,
	token.STAR_ASSIGN: true, token.SLASH_ASSIGN: true,
}

func (p *Parser) parseExpr() *ast.Node {
	return p.parseAssign()
}

func (p *Parser) parseAssign() *ast.Node {
	left := p.parseBinary(1)
	if assignOps[p.cur.Kind] {
		op := p.advance()
		value := p.parseAssign() // right-associative
		span := left.Span
		span.End = value.Span.End
		return p.arena.NewAssignExpr(span, string(op.Kind.String()), left, value)
	}
	return left
}

func (p *Parser) parseBinary(minPrec int) *ast.Node {
	left := p.parseUnary()
	for {
		prec := binPrec(p.cur.Kind)
		if prec == 0 || prec < minPrec {
			break
		}
		op := p.advance()
		right := p.parseBinary(prec + 1)
		span := left.Span
		span.End = right.Span.End
		if op.Kind == token.BANG {
			left = p.arena.NewSendExpr(span, left, right)
		} else {
			left = p.arena.NewBinaryExpr(span, op.Kind.String(), left, right)
		}
	}
	return left
}

func (p *Parser) parseUnary() *ast.Node {
	if p.at(token.MINUS, token.BANG, token.TILDE) {
		op := p.advance()
		operand := p.parseUnary()
		span := op.Span
		span.End = operand.Span.End
		return p.arena.NewUnaryExpr(span, op.Kind.String(), operand)
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(n *ast.Node) *ast.Node {
	for {
		switch p.cur.Kind {
		case token.LPAREN:
			p.advance()
			var args []*ast.Node
			if !p.at(token.RPAREN) {
				args = append(args, p.parseExpr())
				for p.at(token.COMMA) {
					p.advance()
					if p.at(token.RPAREN) {
						break
					}
					args = append(args, p.parseExpr())
				}
			}
			end := p.expect(token.RPAREN)
			span := n.Span
			span.End = end.Span.End
			n = p.arena.NewCallExpr(span, n, args)
		case token.LBRACK:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBRACK)
			span := n.Span
			span.End = end.Span.End
			n = p.arena.NewIndexExpr(span, n, idx)
		case token.DOT:
			p.advance()
			field := p.expect(token.IDENT)
			span := n.Span
			span.End = field.Span.End
			n = p.arena.NewFieldExpr(span, n, string(field.Lexeme))
		default:
			return n
		}
	}
}

func (p *Parser) parsePrimary() *ast.Node {
	tok := p.cur
	switch tok.Kind {
	case token.IDENT:
		p.advance()
		return p.arena.NewIdentExpr(tok.Span, string(tok.Lexeme))
	case token.INT:
		p.advance()
		return p.arena.NewIntLit(tok.Span, string(tok.Lexeme))
	case token.FLOAT:
		p.advance()
		return p.arena.NewFloatLit(tok.Span, string(tok.Lexeme))
	case token.STRING:
		p.advance()
		return p.arena.NewStringLit(tok.Span, string(tok.Lexeme))
	case token.CHAR:
		p.advance()
		return p.arena.NewCharLit(tok.Span, string(tok.Lexeme))
	case token.TRUE:
		p.advance()
		return p.arena.NewBoolLit(tok.Span, true)
	case token.FALSE:
		p.advance()
		return p.arena.NewBoolLit(tok.Span, false)
	case token.NIL:
		p.advance()
		return p.arena.NewNilLit(tok.Span)
	case token.SELF:
		p.advance()
		return p.arena.NewSelfExpr(tok.Span)
	case token.SPAWN:
		p.advance()
		callee := p.parseUnary()
		span := tok.Span
		span.End = callee.Span.End
		return p.arena.NewSpawnExpr(span, callee)
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		end := p.expect(token.RPAREN)
		span := tok.Span
		span.End = end.Span.End
		return p.arena.NewGroupExpr(span, inner)
	default:
		p.advance()
		p.errorf(tok.Span, "unexpected token %s in expression", tok)
		return p.arena.NewIdentExpr(tok.Span, "error")
	}
}
