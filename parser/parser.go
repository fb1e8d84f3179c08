package parser

import (
	"fmt"
	"strconv"

	"github.com/nxlang/nxc/ast"
	"github.com/nxlang/nxc/compileerr"
	"github.com/nxlang/nxc/lexer"
	"github.com/nxlang/nxc/token"
)

// Parser is a single-pass recursive-descent parser with one token of
// lookahead. It owns the lexer, a one-token buffer (current), the
// previous token, the arena, and a sticky had-error flag (spec §4.3).
type Parser struct {
	lex      *lexer.Lexer
	arena    *ast.Arena
	filename string
	source   string

	current  token.Token
	previous token.Token

	errors   *compileerr.List
	hadError bool
}

// New creates a Parser over src. maxErrors caps how many syntax errors are
// recorded (spec §7: "typical: stop after 20"); parsing continues past the
// cap and later errors are dropped. 0 means unlimited.
func New(src, filename string, arena *ast.Arena, maxErrors int) *Parser {
	p := &Parser{
		lex:      lexer.New(src, filename),
		arena:    arena,
		filename: filename,
		source:   src,
		errors:   compileerr.NewList(maxErrors),
	}
	p.advance()
	return p
}

// HadError reports whether any lexical or syntax error was recorded.
func (p *Parser) HadError() bool { return p.hadError }

// Errors returns every recorded error.
func (p *Parser) Errors() *compileerr.List { return p.errors }

func (p *Parser) advance() {
	p.previous = p.current
	for {
		tok := p.lex.NextToken()
		if tok.Kind == token.ERROR {
			p.hadError = true
			p.errors.Add(compileerr.New(tok.Pos, compileerr.KindLexical, tok.Literal))
			continue
		}
		if tok.Kind == token.NEWLINE || tok.Kind == token.COMMENT {
			continue
		}
		p.current = tok
		return
	}
}

func (p *Parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token if it has kind k, else records a
// syntax error at the current position and leaves the cursor in place.
func (p *Parser) expect(k token.Kind, what string) (token.Token, bool) {
	if p.check(k) {
		tok := p.current
		p.advance()
		return tok, true
	}
	p.errAt(p.current.Pos, fmt.Sprintf("expected %s, got %q", what, p.current.Literal))
	return token.Token{}, false
}

func (p *Parser) errAt(pos compileerr.Position, msg string) {
	p.hadError = true
	p.errors.Add(compileerr.New(pos, compileerr.KindSyntax, msg))
}

// synchronize discards tokens until a synchronization point: `;`, `}`, or
// one of {func, let, const, return, if, while, for} — so the parser never
// loops forever on malformed input (spec §4.3).
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.previous.Kind == token.SEMICOLON || p.previous.Kind == token.RBRACE {
			return
		}
		switch p.current.Kind {
		case token.FUNC, token.LET, token.CONST, token.RETURN, token.IF, token.WHILE, token.FOR:
			return
		}
		p.advance()
	}
}

// rangeFrom builds the source span for a node that began at start: start's
// own byte offset through the end of p.previous, the last token consumed
// when it is called. Most nodes call it after their final token; VarDecl
// (after its name), BlockStmt (after `{`), ReturnStmt (after `return`) and
// IfStmt (after the then-block) call it earlier, so their spans stop short
// of the node's end, and the block built around an else-if covers only
// the `if` token.
func (p *Parser) rangeFrom(start token.Token) ast.Range {
	end := p.previous.End
	if end <= start.Start {
		end = start.End
	}
	return ast.Range{Start: start.Start, End: end, Pos: start.Pos}
}

// ParseSource lexes and parses src into a Program. The returned bool is
// HadError: on true, prog may still be a partial tree (spec §4.3 /
// invariant in §8: the parser never panics, it either returns a tree with
// had_error==false, or a possibly-partial tree with had_error==true).
func ParseSource(src, filename string, arena *ast.Arena, maxErrors int) (*ast.Program, bool, *compileerr.List) {
	p := New(src, filename, arena, maxErrors)
	prog := p.parseProgram()
	return prog, p.hadError, p.errors
}

func (p *Parser) parseProgram() *ast.Program {
	prog := p.arena.NewProgram()
	start := p.current
	prog.Pos = start.Pos
	for !p.check(token.EOF) {
		decl := p.parseDeclaration()
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	prog.Range = p.rangeFrom(start)
	return prog
}

func (p *Parser) parseDeclaration() ast.Decl {
	switch p.current.Kind {
	case token.FUNC:
		return p.parseFunctionDecl()
	case token.LET, token.CONST:
		return p.parseVarDecl()
	case token.WHILE, token.FOR, token.SWITCH, token.THROW, token.CATCH, token.TRY,
		token.IMPORT, token.EXPORT, token.ASYNC, token.TYPE:
		p.errAt(p.current.Pos, fmt.Sprintf("%q is not yet supported", p.current.Literal))
		p.advance()
		p.synchronize()
		return nil
	default:
		p.errAt(p.current.Pos, fmt.Sprintf("expected declaration, got %q", p.current.Literal))
		p.advance()
		p.synchronize()
		return nil
	}
}

// parseFunctionDecl parses:
//
//	'func' IDENT '(' params? ')' '->' type block
func (p *Parser) parseFunctionDecl() ast.Decl {
	start := p.current
	p.advance() // 'func'

	nameTok, ok := p.expect(token.IDENTIFIER, "function name")
	if !ok {
		p.synchronize()
		return nil
	}

	if _, ok := p.expect(token.LPAREN, "'('"); !ok {
		p.synchronize()
		return nil
	}

	var params []ast.Param
	if !p.check(token.RPAREN) {
		for {
			pname, ok := p.expect(token.IDENTIFIER, "parameter name")
			if !ok {
				p.synchronize()
				return nil
			}
			if _, ok := p.expect(token.COLON, "':'"); !ok {
				p.synchronize()
				return nil
			}
			ptype, ok := p.parseType()
			if !ok {
				p.synchronize()
				return nil
			}
			params = append(params, ast.Param{Name: pname.Literal, Type: ptype})
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	if _, ok := p.expect(token.RPAREN, "')'"); !ok {
		p.synchronize()
		return nil
	}

	// The return-type arrow is mandatory; a missing arrow is a parse error
	// at the token following ')' (spec §4.3).
	if _, ok := p.expect(token.ARROW, "'->'"); !ok {
		p.synchronize()
		return nil
	}

	retType, ok := p.parseType()
	if !ok {
		p.synchronize()
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	fn := p.arena.NewFunctionDecl()
	fn.Range = p.rangeFrom(start)
	fn.Name = nameTok.Literal
	fn.Params = params
	fn.ReturnType = retType
	fn.Body = body
	return fn
}

// parseType parses:
//
//	type := 'i32' | 'f64' | 'string' | 'bool' | 'void' | '?' type | IDENT '[' ']'
//
// '?'-prefixed and `IDENT[]` forms are accepted syntactically but have no
// backend representation beyond UNKNOWN (spec §9: optional/array types are
// tokenized but not given a full parse/lower path in the core).
func (p *Parser) parseType() (ast.Type, bool) {
	if p.match(token.QUESTION) {
		_, ok := p.parseType()
		return ast.UNKNOWN, ok
	}
	switch p.current.Kind {
	case token.I32:
		p.advance()
		return ast.I32, true
	case token.F64:
		p.advance()
		return ast.F64, true
	case token.STRINGTYPE:
		p.advance()
		return ast.STRING, true
	case token.BOOL:
		p.advance()
		return ast.BOOL, true
	case token.VOID:
		p.advance()
		return ast.VOID, true
	case token.IDENTIFIER:
		p.advance()
		if p.match(token.LBRACKET) {
			if _, ok := p.expect(token.RBRACKET, "']'"); !ok {
				return ast.UNKNOWN, false
			}
		}
		return ast.UNKNOWN, true
	default:
		p.errAt(p.current.Pos, fmt.Sprintf("expected type, got %q", p.current.Literal))
		return ast.UNKNOWN, false
	}
}

// parseVarDecl parses:
//
//	('let'|'const') IDENT (':' type)? ('=' expression)? ';'
func (p *Parser) parseVarDecl() ast.Decl {
	start := p.current
	isConst := p.current.Kind == token.CONST
	p.advance() // 'let' | 'const'

	nameTok, ok := p.expect(token.IDENTIFIER, "variable name")
	if !ok {
		p.synchronize()
		return nil
	}

	decl := p.arena.NewVarDecl()
	decl.Range = p.rangeFrom(start)
	decl.Name = nameTok.Literal
	decl.Const = isConst

	if p.match(token.COLON) {
		typ, ok := p.parseType()
		if !ok {
			p.synchronize()
			return nil
		}
		decl.DeclaredType = typ
		decl.HasType = true
	}

	if p.match(token.ASSIGN) {
		expr, ok := p.parseExpression()
		if !ok {
			p.synchronize()
			return nil
		}
		decl.Init = expr
		decl.HasInit = true
	}

	// The terminating semicolon is mandatory (spec §4.3).
	if _, ok := p.expect(token.SEMICOLON, "';'"); !ok {
		p.synchronize()
		return decl
	}

	return decl
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.current
	if _, ok := p.expect(token.LBRACE, "'{'"); !ok {
		return nil
	}

	block := p.arena.NewBlockStmt()
	block.Range = p.rangeFrom(start)

	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}

	p.expect(token.RBRACE, "'}'")
	return block
}

// parseStatement accepts the statements spec §4.3 lists at block scope:
// variable declarations, return, if/else, block, expression statement.
// while/for/switch/throw/catch/try are recognized and skipped
// with a "not-yet-supported" diagnostic.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.current.Kind {
	case token.LET, token.CONST:
		decl := p.parseVarDecl()
		if decl == nil {
			return nil
		}
		return decl.(ast.Stmt)
	case token.RETURN:
		return p.parseReturnStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.LBRACE:
		return p.parseBlock()
	case token.WHILE, token.FOR, token.SWITCH, token.THROW, token.CATCH, token.TRY:
		p.errAt(p.current.Pos, fmt.Sprintf("%q is not yet supported", p.current.Literal))
		p.advance()
		p.synchronize()
		return nil
	default:
		return p.parseExpressionStmt()
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.current
	p.advance() // 'return'

	stmt := p.arena.NewReturnStmt()
	stmt.Range = p.rangeFrom(start)

	if !p.check(token.SEMICOLON) {
		expr, ok := p.parseExpression()
		if !ok {
			p.synchronize()
			return stmt
		}
		stmt.Value = expr
		stmt.HasValue = true
	}

	p.expect(token.SEMICOLON, "';'")
	return stmt
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.current
	p.advance() // 'if'

	cond, ok := p.parseExpression()
	if !ok {
		p.synchronize()
		return nil
	}

	then := p.parseBlock()
	if then == nil {
		return nil
	}

	stmt := p.arena.NewIfStmt()
	stmt.Range = p.rangeFrom(start)
	stmt.Cond = cond
	stmt.Then = then

	if p.match(token.ELSE) {
		if p.check(token.IF) {
			elseBlock := p.arena.NewBlockStmt()
			elseBlock.Range = p.rangeFrom(p.current)
			nested := p.parseIfStmt()
			if nested != nil {
				elseBlock.Stmts = append(elseBlock.Stmts, nested)
			}
			stmt.Else = elseBlock
			stmt.HasElse = true
		} else {
			elseBlock := p.parseBlock()
			if elseBlock != nil {
				stmt.Else = elseBlock
				stmt.HasElse = true
			}
		}
	}

	return stmt
}

func (p *Parser) parseExpressionStmt() ast.Stmt {
	start := p.current
	expr, ok := p.parseExpression()
	if !ok {
		p.synchronize()
		return nil
	}
	p.expect(token.SEMICOLON, "';'")

	stmt := p.arena.NewExpressionStmt()
	stmt.Range = p.rangeFrom(start)
	stmt.X = expr
	return stmt
}

// --- Expressions, precedence low to high:
//  1. assignment (right-assoc)  2. || 3. && 4. == != is 5. < <= > >=
//  6. + -   7. * / %   8. unary - !   9. call/primary

func (p *Parser) parseExpression() (ast.Expr, bool) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Expr, bool) {
	start := p.current
	left, ok := p.parseOr()
	if !ok {
		return nil, false
	}

	var op ast.AssignOp
	switch p.current.Kind {
	case token.ASSIGN:
		op = ast.Assign
	case token.PLUS_ASSIGN:
		op = ast.AddAssign
	case token.MINUS_ASSIGN:
		op = ast.SubAssign
	case token.STAR_ASSIGN:
		op = ast.MulAssign
	case token.SLASH_ASSIGN:
		op = ast.DivAssign
	default:
		return left, true
	}
	p.advance()

	// right-associative: recurse back into assignment
	value, ok := p.parseAssignment()
	if !ok {
		return nil, false
	}

	if _, ok := left.(*ast.IdentifierExpr); !ok {
		p.errAt(start.Pos, "left side of assignment must be an identifier")
		return nil, false
	}

	assign := p.arena.NewAssignmentExpr()
	assign.Range = p.rangeFrom(start)
	assign.Target = left
	assign.Op = op
	assign.Value = value
	return assign, true
}

func (p *Parser) parseOr() (ast.Expr, bool) {
	left, ok := p.parseAnd()
	if !ok {
		return nil, false
	}
	for p.check(token.OR_OR) {
		start := p.current
		p.advance()
		right, ok := p.parseAnd()
		if !ok {
			return nil, false
		}
		left = p.binary(start, ast.Or, left, right)
	}
	return left, true
}

func (p *Parser) parseAnd() (ast.Expr, bool) {
	left, ok := p.parseEquality()
	if !ok {
		return nil, false
	}
	for p.check(token.AND_AND) {
		start := p.current
		p.advance()
		right, ok := p.parseEquality()
		if !ok {
			return nil, false
		}
		left = p.binary(start, ast.And, left, right)
	}
	return left, true
}

func (p *Parser) parseEquality() (ast.Expr, bool) {
	left, ok := p.parseComparison()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current.Kind {
		case token.EQ:
			op = ast.Eq
		case token.NEQ:
			op = ast.Neq
		case token.IS:
			op = ast.Is
		default:
			return left, true
		}
		start := p.current
		p.advance()
		right, ok := p.parseComparison()
		if !ok {
			return nil, false
		}
		left = p.binary(start, op, left, right)
	}
}

func (p *Parser) parseComparison() (ast.Expr, bool) {
	left, ok := p.parseAdditive()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current.Kind {
		case token.LT:
			op = ast.Lt
		case token.LE:
			op = ast.Le
		case token.GT:
			op = ast.Gt
		case token.GE:
			op = ast.Ge
		default:
			return left, true
		}
		start := p.current
		p.advance()
		right, ok := p.parseAdditive()
		if !ok {
			return nil, false
		}
		left = p.binary(start, op, left, right)
	}
}

func (p *Parser) parseAdditive() (ast.Expr, bool) {
	left, ok := p.parseMultiplicative()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current.Kind {
		case token.PLUS:
			op = ast.Add
		case token.MINUS:
			op = ast.Sub
		default:
			return left, true
		}
		start := p.current
		p.advance()
		right, ok := p.parseMultiplicative()
		if !ok {
			return nil, false
		}
		left = p.binary(start, op, left, right)
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current.Kind {
		case token.STAR:
			op = ast.Mul
		case token.SLASH:
			op = ast.Div
		case token.PERCENT:
			op = ast.Mod
		default:
			return left, true
		}
		start := p.current
		p.advance()
		right, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		left = p.binary(start, op, left, right)
	}
}

func (p *Parser) parseUnary() (ast.Expr, bool) {
	switch p.current.Kind {
	case token.MINUS, token.BANG:
		start := p.current
		opTok := p.current
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		u := p.arena.NewUnaryExpr()
		u.Range = p.rangeFrom(start)
		if opTok.Kind == token.MINUS {
			u.Op = ast.Neg
		} else {
			u.Op = ast.Not
		}
		u.Operand = operand
		return u, true
	default:
		return p.parseCall()
	}
}

func (p *Parser) parseCall() (ast.Expr, bool) {
	expr, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	for p.check(token.LPAREN) {
		start := p.previous
		p.advance() // '('
		var args []ast.Expr
		if !p.check(token.RPAREN) {
			for {
				arg, ok := p.parseExpression()
				if !ok {
					return nil, false
				}
				args = append(args, arg)
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		if _, ok := p.expect(token.RPAREN, "')'"); !ok {
			return nil, false
		}
		call := p.arena.NewCallExpr()
		call.Range = p.rangeFrom(start)
		call.Callee = expr
		call.Args = args
		expr = call
	}
	return expr, true
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	switch p.current.Kind {
	case token.NUMBER:
		tok := p.current
		p.advance()
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errAt(tok.Pos, fmt.Sprintf("invalid number literal %q", tok.Literal))
			return nil, false
		}
		lit := p.arena.NewLiteralExpr()
		lit.Range = p.rangeFrom(tok)
		lit.Kind = ast.LitNumber
		lit.Number = n
		return lit, true

	case token.STRING:
		tok := p.current
		p.advance()
		lit := p.arena.NewLiteralExpr()
		lit.Range = p.rangeFrom(tok)
		lit.Kind = ast.LitString
		lit.Str = p.arena.Intern(ProcessEscapeSequences(tok.Literal))
		return lit, true

	case token.TRUE, token.FALSE:
		tok := p.current
		p.advance()
		lit := p.arena.NewLiteralExpr()
		lit.Range = p.rangeFrom(tok)
		lit.Kind = ast.LitBool
		lit.Bool = tok.Kind == token.TRUE
		return lit, true

	case token.NULL:
		tok := p.current
		p.advance()
		lit := p.arena.NewLiteralExpr()
		lit.Range = p.rangeFrom(tok)
		lit.Kind = ast.LitNull
		return lit, true

	case token.IDENTIFIER:
		tok := p.current
		p.advance()
		id := p.arena.NewIdentifierExpr()
		id.Range = p.rangeFrom(tok)
		id.Name = tok.Literal
		return id, true

	case token.LPAREN:
		p.advance()
		expr, ok := p.parseExpression()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RPAREN, "')'"); !ok {
			return nil, false
		}
		return expr, true

	default:
		p.errAt(p.current.Pos, fmt.Sprintf("expected expression, got %q", p.current.Literal))
		return nil, false
	}
}

func (p *Parser) binary(opTok token.Token, op ast.BinaryOp, left, right ast.Expr) ast.Expr {
	b := p.arena.NewBinaryExpr()
	leftRange := left.Range()
	end := p.previous.End
	if end <= leftRange.Start {
		end = opTok.End
	}
	b.Range = ast.Range{Start: leftRange.Start, End: end, Pos: leftRange.Pos}
	b.Op = op
	b.Left = left
	b.Right = right
	return b
}
