// Package analysis implements static analysis of Lua chunks.
package analysis

import (
	"fmt"
	"slices"

	"github.com/marcuscaisey/luals/lua"
	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/token"
)

// Tags classify the messages reported by [Check].
const (
	// TagUnused is the tag of a message reporting a local which is never read.
	TagUnused = "unused"
	// TagMask is the tag of a message reporting a local which masks another visible local with the same name.
	TagMask = "mask"
	// TagAny is the tag of a message reporting a local which is declared without a value in strict mode.
	TagAny = "any"
	// TagUndefined is the tag of a message reporting a read of a global which is never defined in strict mode.
	TagUndefined = "undefined"
	// TagType is the tag of a message reporting a value of the wrong type.
	TagType = "type"
	// TagCall is the tag of a message reporting a call of a value which can't be called.
	TagCall = "call"
)

// IsWarningTag reports whether messages with the given tag are warnings. Messages with any other tag are errors.
func IsWarningTag(tag string) bool {
	switch tag {
	case TagUnused, TagMask, TagAny:
		return true
	default:
		return false
	}
}

// Message is a message reported by [Check].
type Message struct {
	Start token.Position
	End   token.Position
	Tag   string
	Msg   string
}

// Option can be passed to [Check] to configure its behaviour.
type Option func(*checker)

// WithStrictMode configures whether strict mode is enabled. In strict mode:
//   - locals declared without a value have type any and are reported
//   - reads of globals which are not built-in and never assigned are reported
//   - assigning a value of a different type to a local is reported
func WithStrictMode(enabled bool) Option {
	return func(c *checker) {
		c.strictMode = enabled
	}
}

// WithIntegerMode configures whether integer mode is enabled. In integer mode, number literals have type integer.
func WithIntegerMode(enabled bool) Option {
	return func(c *checker) {
		c.integerMode = enabled
	}
}

// WithUnusedCheck configures whether locals which are never read are reported.
func WithUnusedCheck(enabled bool) Option {
	return func(c *checker) {
		c.unusedCheck = enabled
	}
}

// Check resolves every identifier in a chunk to the binding that it refers to and infers the type of its value,
// setting the Scope and Type fields of each [ast.Ident]. It returns the messages found during the analysis, sorted by
// position.
//
// Two identifiers with the same name refer to the same binding if and only if they're assigned the same Scope. All
// globals are assigned [ast.GlobalScope].
func Check(chunk *ast.Chunk, opts ...Option) []Message {
	c := &checker{
		lastScopeID:  ast.GlobalScope,
		globalTypes:  make(map[string]string, len(lua.Builtins)),
		globalWrites: map[string]bool{},
	}
	for name, typ := range lua.Builtins {
		c.globalTypes[name] = typ
	}
	for _, opt := range opts {
		opt(c)
	}
	return c.Check(chunk)
}

type checker struct {
	scopes       []*scope
	lastScopeID  ast.ScopeID
	globalTypes  map[string]string
	globalWrites map[string]bool
	globalReads  []*ast.Ident
	msgs         []Message

	strictMode  bool
	integerMode bool
	unusedCheck bool
}

func (c *checker) Check(chunk *ast.Chunk) []Message {
	c.checkBlock(chunk.Block)
	if c.strictMode {
		for _, ident := range c.globalReads {
			if _, ok := lua.Builtins[ident.Name()]; ok || c.globalWrites[ident.Name()] {
				continue
			}
			c.addf(ident, TagUndefined, "undefined global %s", ident.Name())
		}
	}
	slices.SortStableFunc(c.msgs, func(a, b Message) int {
		return a.Start.Compare(b.Start)
	})
	return c.msgs
}

func (c *checker) addf(rang token.CharacterRange, tag string, format string, args ...any) {
	c.msgs = append(c.msgs, Message{
		Start: rang.Start(),
		End:   rang.End(),
		Tag:   tag,
		Msg:   fmt.Sprintf(format, args...),
	})
}

// checkBlock checks the statements of a block in a new scope. The optional then functions are called before the scope
// ends.
func (c *checker) checkBlock(block *ast.Block, then ...func()) {
	endScope := c.beginScope()
	defer endScope()
	for _, stmt := range block.Stmts {
		c.checkStmt(stmt)
	}
	for _, f := range then {
		f()
	}
}

func (c *checker) checkStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.LocalStmt:
		c.checkLocalStmt(stmt)
	case *ast.LocalFunctionStmt:
		c.declare(stmt.Name, functionType(stmt.Func.Params, stmt.Func.Vararg), false)
		c.checkFunction(stmt.Func, nil)
	case *ast.FunctionStmt:
		c.checkFunctionStmt(stmt)
	case *ast.AssignStmt:
		c.checkAssignStmt(stmt)
	case *ast.CallStmt:
		c.checkExpr(stmt.Call)
	case *ast.DoStmt:
		c.checkBlock(stmt.Body)
	case *ast.WhileStmt:
		c.checkExpr(stmt.Condition)
		c.checkBlock(stmt.Body)
	case *ast.RepeatStmt:
		c.checkBlock(stmt.Body, func() { c.checkExpr(stmt.Condition) })
	case *ast.IfStmt:
		for _, clause := range stmt.Clauses {
			c.checkExpr(clause.Condition)
			c.checkBlock(clause.Body)
		}
		if stmt.Else != nil {
			c.checkBlock(stmt.Else)
		}
	case *ast.NumericForStmt:
		c.checkNumericForStmt(stmt)
	case *ast.GenericForStmt:
		for _, expr := range stmt.Exprs {
			c.checkExpr(expr)
		}
		endScope := c.beginScope()
		for _, name := range stmt.Names {
			c.declare(name, typeAny, false)
		}
		c.checkBlock(stmt.Body)
		endScope()
	case *ast.ReturnStmt:
		for _, value := range stmt.Values {
			c.checkExpr(value)
		}
	case *ast.BreakStmt, *ast.EmptyStmt:
	}
}

func (c *checker) checkLocalStmt(stmt *ast.LocalStmt) {
	types := c.checkExprList(stmt.Values, len(stmt.Names))
	for i, name := range stmt.Names {
		typ := types[i]
		if len(stmt.Values) == 0 && c.strictMode {
			typ = typeAny
			c.addf(name, TagAny, "local %s is declared without a value and has type any", name.Name())
		}
		c.declare(name, typ, false)
	}
}

// checkExprList checks a list of expressions whose values are adjusted to n values and returns their types.
// Missing values are nil, unless the last expression is a call or vararg which can produce any number of values.
func (c *checker) checkExprList(exprs []ast.Expr, n int) []string {
	types := make([]string, max(n, len(exprs)))
	for i, expr := range exprs {
		types[i] = c.checkExpr(expr)
	}
	fill := typeNil
	if len(exprs) > 0 && isMultiValue(exprs[len(exprs)-1]) {
		fill = typeAny
	}
	for i := len(exprs); i < len(types); i++ {
		types[i] = fill
	}
	return types
}

func isMultiValue(expr ast.Expr) bool {
	switch expr := expr.(type) {
	case *ast.CallExpr, *ast.MethodCallExpr:
		return true
	case *ast.LiteralExpr:
		return expr.Value.Type == token.Ellipsis
	default:
		return false
	}
}

func (c *checker) checkFunctionStmt(stmt *ast.FunctionStmt) {
	var self *ast.Ident
	if stmt.Method {
		self = &ast.Ident{Token: token.Token{
			StartPos: stmt.Func.LeftParen.StartPos,
			EndPos:   stmt.Func.LeftParen.StartPos,
			Type:     token.Ident,
			Lexeme:   "self",
		}}
	}
	if len(stmt.Path) == 0 {
		c.write(stmt.Name, functionType(stmt.Func.Params, stmt.Func.Vararg))
	} else {
		c.checkIndexed(&ast.IdentExpr{Ident: stmt.Name})
	}
	c.checkFunction(stmt.Func, self)
}

// checkFunction checks a function's body in a new scope containing its parameters and returns the function's type.
// self is declared as the first parameter if non-nil.
func (c *checker) checkFunction(fn *ast.FunctionBody, self *ast.Ident) string {
	endScope := c.beginScope()
	defer endScope()
	params := fn.Params
	if self != nil {
		c.declare(self, typeTable, true)
		params = append([]*ast.Ident{self}, params...)
	}
	for _, param := range fn.Params {
		c.declare(param, typeAny, true)
	}
	c.checkBlock(fn.Body)
	return functionType(params, fn.Vararg)
}

func (c *checker) checkAssignStmt(stmt *ast.AssignStmt) {
	types := c.checkExprList(stmt.Values, len(stmt.Targets))
	for i, target := range stmt.Targets {
		switch target := target.(type) {
		case *ast.IdentExpr:
			c.write(target.Ident, types[i])
		case *ast.IndexExpr:
			c.checkIndexed(target.Object)
			c.checkExpr(target.Key)
		case *ast.FieldExpr:
			c.checkIndexed(target.Object)
		default:
			c.checkExpr(target)
		}
	}
}

func (c *checker) checkNumericForStmt(stmt *ast.NumericForStmt) {
	bounds := []struct {
		expr ast.Expr
		name string
	}{{stmt.Init, "initial"}, {stmt.Limit, "limit"}, {stmt.Step, "step"}}
	for _, bound := range bounds {
		if bound.expr == nil {
			continue
		}
		typ := c.checkExpr(bound.expr)
		if !isNumeric(typ) && typ != typeAny {
			c.addf(bound.expr, TagType, "'for' %s value must be a number", bound.name)
		}
	}
	endScope := c.beginScope()
	c.declare(stmt.Var, c.numberType(), false)
	c.checkBlock(stmt.Body)
	endScope()
}
