// Package parser implements a parser for Lua source code.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/marcuscaisey/luals/lua"
	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/token"
)

// Option can be passed to [Parse] to configure its behaviour.
type Option func(*parser)

// WithStrictMode configures whether strict mode is enabled. In strict mode, global function declarations such as
// function f() end are reported as errors.
func WithStrictMode(enabled bool) Option {
	return func(p *parser) {
		p.strictMode = enabled
	}
}

// WithIntegerMode configures whether integer mode is enabled. In integer mode, number literals with a fractional part
// or an exponent are reported as errors.
func WithIntegerMode(enabled bool) Option {
	return func(p *parser) {
		p.integerMode = enabled
	}
}

// Parse parses the source code read from r.
// filename is the name of the file being parsed.
// If an error is returned then an incomplete AST will still be returned along with it. The error is a [lua.Errors]
// whose first line has the form <line>:<column>: <message>.
func Parse(r io.Reader, filename string, opts ...Option) (*ast.Chunk, error) {
	lexer, err := newLexer(r, filename)
	if err != nil {
		return nil, fmt.Errorf("constructing parser: %s", err)
	}

	p := &parser{lexer: lexer}
	lexer.SetErrorHandler(func(tok token.Token, format string, args ...any) {
		p.addErrorf(tok, format, args...)
	})
	for _, opt := range opts {
		opt(p)
	}

	return p.Parse()
}

type parser struct {
	lexer   *lexer
	tok     token.Token // token currently being considered
	nextTok token.Token

	errs       lua.Errors
	lastErrPos token.Position

	strictMode  bool
	integerMode bool
}

// Parse parses the source code and returns the root node of the abstract syntax tree.
// If an error is returned then an incomplete AST will still be returned along with it.
func (p *parser) Parse() (*ast.Chunk, error) {
	// Populate tok and nextTok
	p.next()
	p.next()
	chunk := p.parseChunk()
	p.errs.Sort()
	return chunk, p.errs.Err()
}

func (p *parser) parseChunk() *ast.Chunk {
	block := &ast.Block{StartPos: p.tok.StartPos}
	for {
		block.Stmts = append(block.Stmts, p.parseStmtsUntilBlockEnd()...)
		if p.tok.Type == token.EOF {
			break
		}
		// A block terminator with no matching block.
		p.addErrorf(p.tok, "unexpected %m", p.tok.Type)
		p.next()
	}
	block.EndPos = p.tok.StartPos
	return &ast.Chunk{Block: block, EOF: p.tok}
}

// parseBlock parses statements until a token which terminates a block is reached.
func (p *parser) parseBlock() *ast.Block {
	block := &ast.Block{StartPos: p.tok.StartPos}
	block.Stmts = p.parseStmtsUntilBlockEnd()
	block.EndPos = p.tok.StartPos
	return block
}

func (p *parser) parseStmtsUntilBlockEnd() []ast.Stmt {
	var stmts []ast.Stmt
	for !isBlockEnd(p.tok.Type) {
		stmt, ok := p.safelyParseStmt()
		if !ok {
			continue
		}
		stmts = append(stmts, stmt)
		if _, ok := stmt.(*ast.ReturnStmt); ok && !isBlockEnd(p.tok.Type) {
			p.addErrorf(p.tok, "expected end of block after return statement but got %m", p.tok.Type)
		}
	}
	return stmts
}

func isBlockEnd(t token.Type) bool {
	switch t {
	case token.EOF, token.End, token.Else, token.Elseif, token.Until:
		return true
	default:
		return false
	}
}

func (p *parser) safelyParseStmt() (stmt ast.Stmt, ok bool) {
	from := p.tok
	defer func() {
		if r := recover(); r != nil {
			if _, isUnwind := r.(unwind); isUnwind {
				if p.tok.StartPos == from.StartPos && p.tok.Type != token.EOF {
					p.next()
				}
				p.sync()
				stmt, ok = nil, false
			} else {
				panic(r)
			}
		}
	}()
	return p.parseStmt(), true
}

// sync synchronises the parser with the next statement. This is used to recover from a parsing error.
func (p *parser) sync() {
	for {
		switch p.tok.Type {
		case token.Semicolon:
			p.next()
			return
		case token.Local, token.Function, token.If, token.While, token.For, token.Do, token.Repeat, token.Return,
			token.Break, token.EOF, token.End, token.Else, token.Elseif, token.Until:
			return
		}
		p.next()
	}
}

func (p *parser) parseStmt() ast.Stmt {
	switch tok := p.tok; {
	case p.match(token.Semicolon):
		return &ast.EmptyStmt{Semicolon: tok}
	case p.tok.Type == token.Local && p.nextTok.Type == token.Function:
		p.next()
		functionTok := p.tok
		p.next()
		return p.parseLocalFunctionStmt(tok, functionTok)
	case p.match(token.Local):
		return p.parseLocalStmt(tok)
	case p.match(token.Function):
		return p.parseFunctionStmt(tok)
	case p.match(token.Do):
		body := p.parseBlock()
		end := p.expectClosing(token.End, tok)
		return &ast.DoStmt{Do: tok, Body: body, EndTok: end}
	case p.match(token.While):
		cond := p.parseExpr()
		p.expect(token.Do)
		body := p.parseBlock()
		end := p.expectClosing(token.End, tok)
		return &ast.WhileStmt{While: tok, Condition: cond, Body: body, EndTok: end}
	case p.match(token.Repeat):
		body := p.parseBlock()
		p.expectClosing(token.Until, tok)
		cond := p.parseExpr()
		return &ast.RepeatStmt{Repeat: tok, Body: body, Condition: cond}
	case p.match(token.If):
		return p.parseIfStmt(tok)
	case p.match(token.For):
		return p.parseForStmt(tok)
	case p.match(token.Break):
		return &ast.BreakStmt{Break: tok}
	case p.match(token.Return):
		return p.parseReturnStmt(tok)
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseLocalStmt(localTok token.Token) *ast.LocalStmt {
	stmt := &ast.LocalStmt{Local: localTok}
	for {
		stmt.Names = append(stmt.Names, p.parseIdent())
		if !p.match(token.Comma) {
			break
		}
	}
	if p.match(token.Equal) {
		stmt.Values = p.parseExprList()
	}
	return stmt
}

func (p *parser) parseLocalFunctionStmt(localTok, functionTok token.Token) *ast.LocalFunctionStmt {
	return &ast.LocalFunctionStmt{
		Local: localTok,
		Name:  p.parseIdent(),
		Func:  p.parseFunctionBody(functionTok),
	}
}

func (p *parser) parseFunctionStmt(functionTok token.Token) *ast.FunctionStmt {
	stmt := &ast.FunctionStmt{
		Function: functionTok,
		Name:     p.parseIdent(),
	}
	for p.match(token.Dot) {
		stmt.Path = append(stmt.Path, p.expectf(token.Ident, "expected field name"))
	}
	if p.match(token.Colon) {
		stmt.Path = append(stmt.Path, p.expectf(token.Ident, "expected method name"))
		stmt.Method = true
	}
	if p.strictMode && len(stmt.Path) == 0 {
		p.addErrorf(stmt.Name, "global function %s declared in strict mode, use local function instead", stmt.Name.Name())
	}
	stmt.Func = p.parseFunctionBody(functionTok)
	return stmt
}

// parseFunctionBody parses a function's parameters and body. opening is the token which the closing end should be
// matched with in error messages.
func (p *parser) parseFunctionBody(opening token.Token) *ast.FunctionBody {
	fn := &ast.FunctionBody{LeftParen: p.expect(token.LeftParen)}
	if !p.match(token.RightParen) {
		for {
			if p.match(token.Ellipsis) {
				fn.Vararg = true
				break
			}
			fn.Params = append(fn.Params, p.parseIdent())
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.RightParen)
	}
	fn.Body = p.parseBlock()
	fn.EndTok = p.expectClosing(token.End, opening)
	return fn
}

func (p *parser) parseIfStmt(ifTok token.Token) *ast.IfStmt {
	stmt := &ast.IfStmt{If: ifTok}
	for {
		cond := p.parseExpr()
		p.expect(token.Then)
		body := p.parseBlock()
		stmt.Clauses = append(stmt.Clauses, &ast.IfClause{Condition: cond, Body: body})
		if !p.match(token.Elseif) {
			break
		}
	}
	if p.match(token.Else) {
		stmt.Else = p.parseBlock()
	}
	stmt.EndTok = p.expectClosing(token.End, ifTok)
	return stmt
}

func (p *parser) parseForStmt(forTok token.Token) ast.Stmt {
	first := p.parseIdent()
	if p.match(token.Equal) {
		stmt := &ast.NumericForStmt{For: forTok, Var: first}
		stmt.Init = p.parseExpr()
		p.expect(token.Comma)
		stmt.Limit = p.parseExpr()
		if p.match(token.Comma) {
			stmt.Step = p.parseExpr()
		}
		p.expect(token.Do)
		stmt.Body = p.parseBlock()
		stmt.EndTok = p.expectClosing(token.End, forTok)
		return stmt
	}

	stmt := &ast.GenericForStmt{For: forTok, Names: []*ast.Ident{first}}
	for p.match(token.Comma) {
		stmt.Names = append(stmt.Names, p.parseIdent())
	}
	p.expectf(token.In, "expected %m or %m", token.Equal, token.In)
	stmt.Exprs = p.parseExprList()
	p.expect(token.Do)
	stmt.Body = p.parseBlock()
	stmt.EndTok = p.expectClosing(token.End, forTok)
	return stmt
}

func (p *parser) parseReturnStmt(returnTok token.Token) *ast.ReturnStmt {
	stmt := &ast.ReturnStmt{Return: returnTok}
	if !isBlockEnd(p.tok.Type) && p.tok.Type != token.Semicolon {
		stmt.Values = p.parseExprList()
	}
	p.match(token.Semicolon)
	return stmt
}

// parseExprStmt parses an assignment or a function call statement.
func (p *parser) parseExprStmt() ast.Stmt {
	first := p.parseSuffixedExpr()
	if p.tok.Type == token.Equal || p.tok.Type == token.Comma {
		targets := []ast.Expr{first}
		for p.match(token.Comma) {
			targets = append(targets, p.parseSuffixedExpr())
		}
		for _, target := range targets {
			switch target.(type) {
			case *ast.IdentExpr, *ast.IndexExpr, *ast.FieldExpr:
			default:
				p.addError(target, "cannot assign to this expression")
			}
		}
		p.expect(token.Equal)
		return &ast.AssignStmt{Targets: targets, Values: p.parseExprList()}
	}
	switch first.(type) {
	case *ast.CallExpr, *ast.MethodCallExpr:
		return &ast.CallStmt{Call: first}
	default:
		p.addErrorf(p.tok, "syntax error near %s", describe(p.tok))
		panic(unwind{})
	}
}

func (p *parser) parseExprList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpr()}
	for p.match(token.Comma) {
		exprs = append(exprs, p.parseExpr())
	}
	return exprs
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseOrExpr()
}

func (p *parser) parseOrExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseAndExpr, token.Or)
}

func (p *parser) parseAndExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseComparisonExpr, token.And)
}

func (p *parser) parseComparisonExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseConcatExpr, token.Less, token.LessEqual, token.Greater, token.GreaterEqual,
		token.EqualEqual, token.TildeEqual)
}

// parseConcatExpr parses a right associative concatenation.
func (p *parser) parseConcatExpr() ast.Expr {
	left := p.parseAdditiveExpr()
	if op, ok := p.match2(token.DotDot); ok {
		return &ast.BinaryExpr{Left: left, Op: op, Right: p.parseConcatExpr()}
	}
	return left
}

func (p *parser) parseAdditiveExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseMultiplicativeExpr, token.Plus, token.Minus)
}

func (p *parser) parseMultiplicativeExpr() ast.Expr {
	return p.parseBinaryExpr(p.parseUnaryExpr, token.Asterisk, token.Slash, token.DoubleSlash, token.Percent)
}

// parseBinaryExpr parses a left associative binary expression whose operands are parsed by next.
func (p *parser) parseBinaryExpr(next func() ast.Expr, operators ...token.Type) ast.Expr {
	expr := next()
	for {
		op, ok := p.match2(operators...)
		if !ok {
			return expr
		}
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: next()}
	}
}

func (p *parser) parseUnaryExpr() ast.Expr {
	if op, ok := p.match2(token.Not, token.Hash, token.Minus); ok {
		return &ast.UnaryExpr{Op: op, Right: p.parseUnaryExpr()}
	}
	return p.parsePowExpr()
}

// parsePowExpr parses a right associative exponentiation. The exponent may be a unary expression, as in 2^-1.
func (p *parser) parsePowExpr() ast.Expr {
	base := p.parseSimpleExpr()
	if op, ok := p.match2(token.Caret); ok {
		return &ast.BinaryExpr{Left: base, Op: op, Right: p.parseUnaryExpr()}
	}
	return base
}

func (p *parser) parseSimpleExpr() ast.Expr {
	switch tok := p.tok; {
	case p.match(token.Number):
		p.checkNumber(tok)
		return &ast.LiteralExpr{Value: tok}
	case p.match(token.String, token.True, token.False, token.Nil, token.Ellipsis):
		return &ast.LiteralExpr{Value: tok}
	case p.match(token.Function):
		return &ast.FunctionExpr{Function: tok, Func: p.parseFunctionBody(tok)}
	case p.tok.Type == token.LeftBrace:
		return p.parseTableExpr()
	default:
		return p.parseSuffixedExpr()
	}
}

func (p *parser) checkNumber(tok token.Token) {
	if !p.integerMode {
		return
	}
	lexeme := strings.ToLower(tok.Lexeme)
	isHex := strings.HasPrefix(lexeme, "0x")
	if strings.Contains(lexeme, ".") || (!isHex && strings.Contains(lexeme, "e")) || (isHex && strings.Contains(lexeme, "p")) {
		p.addErrorf(tok, "float literal %s not allowed in integer mode", tok.Lexeme)
	}
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	switch tok := p.tok; {
	case p.tok.Type == token.Ident:
		return &ast.IdentExpr{Ident: p.parseIdent()}
	case p.match(token.LeftParen):
		expr := p.parseExpr()
		rightParen := p.expect(token.RightParen)
		return &ast.ParenExpr{LeftParen: tok, Expr: expr, RightParen: rightParen}
	default:
		p.addErrorf(tok, "unexpected symbol near %s", describe(tok))
		panic(unwind{})
	}
}

func (p *parser) parseSuffixedExpr() ast.Expr {
	expr := p.parsePrimaryExpr()
	for {
		switch {
		case p.match(token.Dot):
			expr = &ast.FieldExpr{Object: expr, Name: p.expectf(token.Ident, "expected field name")}
		case p.match(token.LeftBracket):
			key := p.parseExpr()
			expr = &ast.IndexExpr{Object: expr, Key: key, RightBracket: p.expect(token.RightBracket)}
		case p.match(token.Colon):
			name := p.expectf(token.Ident, "expected method name")
			args, end := p.parseCallArgs()
			expr = &ast.MethodCallExpr{Object: expr, Name: name, Args: args, EndPos: end}
		case p.tok.Type == token.LeftParen || p.tok.Type == token.String || p.tok.Type == token.LeftBrace:
			args, end := p.parseCallArgs()
			expr = &ast.CallExpr{Callee: expr, Args: args, EndPos: end}
		default:
			return expr
		}
	}
}

// parseCallArgs parses the arguments of a call and returns them along with the end position of the call.
func (p *parser) parseCallArgs() ([]ast.Expr, token.Position) {
	switch tok := p.tok; {
	case p.match(token.String):
		return []ast.Expr{&ast.LiteralExpr{Value: tok}}, tok.EndPos
	case p.tok.Type == token.LeftBrace:
		table := p.parseTableExpr()
		return []ast.Expr{table}, table.End()
	default:
		p.expectf(token.LeftParen, "expected function arguments")
		var args []ast.Expr
		if p.tok.Type != token.RightParen {
			args = p.parseExprList()
		}
		rightParen := p.expect(token.RightParen)
		return args, rightParen.EndPos
	}
}

func (p *parser) parseTableExpr() *ast.TableExpr {
	table := &ast.TableExpr{LeftBrace: p.expect(token.LeftBrace)}
	for p.tok.Type != token.RightBrace {
		field := &ast.TableField{}
		switch tok := p.tok; {
		case p.tok.Type == token.Ident && p.nextTok.Type == token.Equal:
			p.next()
			p.next()
			field.Name = tok
		case p.match(token.LeftBracket):
			field.Key = p.parseExpr()
			p.expect(token.RightBracket)
			p.expect(token.Equal)
		}
		field.Value = p.parseExpr()
		table.Fields = append(table.Fields, field)
		if !p.match(token.Comma, token.Semicolon) {
			break
		}
	}
	table.RightBrace = p.expectf(token.RightBrace, "expected %m to close table constructor", token.RightBrace)
	return table
}

func (p *parser) parseIdent() *ast.Ident {
	return &ast.Ident{Token: p.expectf(token.Ident, "expected identifier but got %s", describe(p.tok))}
}

// describe returns a description of a token for use in an error message.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.Ident, token.Number, token.String:
		return "'" + tok.Lexeme + "'"
	default:
		return fmt.Sprintf("%m", tok.Type)
	}
}

// match reports whether the current token is one of the given types and advances the parser if so.
func (p *parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.tok.Type == t {
			p.next()
			return true
		}
	}
	return false
}

// match2 is like match but also returns the matched token.
func (p *parser) match2(types ...token.Type) (token.Token, bool) {
	tok := p.tok
	return tok, p.match(types...)
}

// expect returns the current token and advances the parser if it has the given type. Otherwise, an "expected %m" error
// is added and the method panics to unwind the stack.
func (p *parser) expect(t token.Type) token.Token {
	return p.expectf(t, "expected %m but got %s", t, describe(p.tok))
}

// expectClosing is like expect but the error message refers to the token which t should close.
func (p *parser) expectClosing(t token.Type, opening token.Token) token.Token {
	if p.tok.Type == t || opening.StartPos.Line == p.tok.StartPos.Line {
		return p.expect(t)
	}
	return p.expectf(t, "expected %m (to close %m at line %d) but got %s", t, opening.Type, opening.StartPos.Line,
		describe(p.tok))
}

// expectf is like expect but accepts a format string for the error message.
func (p *parser) expectf(t token.Type, format string, a ...any) token.Token {
	if p.tok.Type == t {
		tok := p.tok
		p.next()
		return tok
	}
	p.addErrorf(p.tok, format, a...)
	panic(unwind{})
}

// next advances the parser to the next token, skipping comments.
func (p *parser) next() {
	p.tok = p.nextTok
	p.nextTok = p.lexer.Next()
	for p.nextTok.Type == token.Comment || (p.nextTok.Type == token.Illegal && strings.HasPrefix(p.nextTok.Lexeme, "--")) {
		p.nextTok = p.lexer.Next()
	}
}

func (p *parser) addError(rang token.CharacterRange, message string) {
	if p.repeatsLastError(rang) {
		return
	}
	p.errs.Add(rang, message)
}

func (p *parser) addErrorf(rang token.CharacterRange, format string, args ...any) {
	if p.repeatsLastError(rang) {
		return
	}
	p.errs.Addf(rang, format, args...)
}

// repeatsLastError reports whether an error has already been reported at the start of rang. Only the first error at a
// position is kept.
func (p *parser) repeatsLastError(rang token.CharacterRange) bool {
	start := rang.Start()
	if len(p.errs) > 0 && start == p.lastErrPos {
		return true
	}
	p.lastErrPos = start
	return false
}

// unwind is used as a panic value so that we can unwind the stack and recover from a parsing error without having to
// check for errors after every call to each parsing method.
type unwind struct{}
