// Package ast declares the types used to represent abstract syntax trees for Lua chunks.
package ast

import (
	"github.com/marcuscaisey/luals/lua/token"
)

// ScopeID identifies the binding that an identifier refers to. Two identifiers with the same name refer to the same
// binding if and only if their ScopeIDs are equal.
type ScopeID int

const (
	// NoScope is the ScopeID of an identifier which hasn't been resolved.
	NoScope ScopeID = iota
	// GlobalScope is the ScopeID of all global identifiers.
	GlobalScope
)

// Node is the interface which all AST nodes implement.
//
//gosumtype:decl Node
type Node interface {
	token.CharacterRange
	isNode()
}

type node struct{}

func (node) isNode() {}

// Ident is an occurrence of an identifier, either where it's declared or where it's used.
type Ident struct {
	Token token.Token
	Scope ScopeID // Scope is set by analysis.
	Type  string  // Type is a descriptor of the type of the value, such as "number" or "function(a, b)". It's set by analysis.
	node
}

func (i *Ident) Start() token.Position { return i.Token.StartPos }
func (i *Ident) End() token.Position   { return i.Token.EndPos }

// Name returns the identifier's name.
func (i *Ident) Name() string { return i.Token.Lexeme }

// Chunk is the root node of the AST.
type Chunk struct {
	Block *Block
	EOF   token.Token
	node
}

func (c *Chunk) Start() token.Position { return c.Block.Start() }
func (c *Chunk) End() token.Position   { return c.EOF.EndPos }

// Block is a sequence of statements which forms a scope.
type Block struct {
	StartPos token.Position
	EndPos   token.Position
	Stmts    []Stmt
	node
}

func (b *Block) Start() token.Position { return b.StartPos }
func (b *Block) End() token.Position   { return b.EndPos }

// FunctionBody is a function's parameters and body.
type FunctionBody struct {
	LeftParen token.Token
	Params    []*Ident
	Vararg    bool
	Body      *Block
	EndTok    token.Token
	node
}

func (f *FunctionBody) Start() token.Position { return f.LeftParen.StartPos }
func (f *FunctionBody) End() token.Position   { return f.EndTok.EndPos }

// Stmt is the interface which all statement nodes implement.
//
//gosumtype:decl Stmt
type Stmt interface {
	Node
	isStmt()
}

type stmt struct {
	node
}

func (stmt) isStmt() {}

// LocalStmt is a local variable declaration, such as local a, b = 1, 2.
type LocalStmt struct {
	Local  token.Token
	Names  []*Ident
	Values []Expr
	stmt
}

func (s *LocalStmt) Start() token.Position { return s.Local.StartPos }
func (s *LocalStmt) End() token.Position {
	if len(s.Values) > 0 {
		return s.Values[len(s.Values)-1].End()
	}
	return s.Names[len(s.Names)-1].End()
}

// LocalFunctionStmt is a local function declaration, such as local function add(x, y) return x + y end.
type LocalFunctionStmt struct {
	Local token.Token
	Name  *Ident
	Func  *FunctionBody
	stmt
}

func (s *LocalFunctionStmt) Start() token.Position { return s.Local.StartPos }
func (s *LocalFunctionStmt) End() token.Position   { return s.Func.End() }

// FunctionStmt is a function declaration, such as function add(x, y) return x + y end, function m.add(x, y) end or
// function obj:method() end.
type FunctionStmt struct {
	Function token.Token
	Name     *Ident
	Path     []token.Token // Path holds the field names following Name, if any.
	Method   bool          // Method reports whether the last element of Path was preceded by a colon.
	Func     *FunctionBody
	stmt
}

func (s *FunctionStmt) Start() token.Position { return s.Function.StartPos }
func (s *FunctionStmt) End() token.Position   { return s.Func.End() }

// AssignStmt is an assignment, such as a, t.b = 1, 2.
type AssignStmt struct {
	Targets []Expr
	Values  []Expr
	stmt
}

func (s *AssignStmt) Start() token.Position { return s.Targets[0].Start() }
func (s *AssignStmt) End() token.Position   { return s.Values[len(s.Values)-1].End() }

// CallStmt is a function call used as a statement.
type CallStmt struct {
	Call Expr
	stmt
}

func (s *CallStmt) Start() token.Position { return s.Call.Start() }
func (s *CallStmt) End() token.Position   { return s.Call.End() }

// DoStmt is a block, such as do local a = 1 end.
type DoStmt struct {
	Do     token.Token
	Body   *Block
	EndTok token.Token
	stmt
}

func (s *DoStmt) Start() token.Position { return s.Do.StartPos }
func (s *DoStmt) End() token.Position   { return s.EndTok.EndPos }

// WhileStmt is a while loop, such as while i < 10 do i = i + 1 end.
type WhileStmt struct {
	While     token.Token
	Condition Expr
	Body      *Block
	EndTok    token.Token
	stmt
}

func (s *WhileStmt) Start() token.Position { return s.While.StartPos }
func (s *WhileStmt) End() token.Position   { return s.EndTok.EndPos }

// RepeatStmt is a repeat loop, such as repeat i = i + 1 until i >= 10.
// Locals declared in the body are visible in the condition.
type RepeatStmt struct {
	Repeat    token.Token
	Body      *Block
	Condition Expr
	stmt
}

func (s *RepeatStmt) Start() token.Position { return s.Repeat.StartPos }
func (s *RepeatStmt) End() token.Position   { return s.Condition.End() }

// IfStmt is an if statement with any number of elseif clauses and an optional else block.
type IfStmt struct {
	If      token.Token
	Clauses []*IfClause // Clauses holds the if clause followed by the elseif clauses.
	Else    *Block
	EndTok  token.Token
	stmt
}

func (s *IfStmt) Start() token.Position { return s.If.StartPos }
func (s *IfStmt) End() token.Position   { return s.EndTok.EndPos }

// IfClause is the condition and body of an if or elseif.
type IfClause struct {
	Condition Expr
	Body      *Block
	node
}

func (c *IfClause) Start() token.Position { return c.Condition.Start() }
func (c *IfClause) End() token.Position   { return c.Body.End() }

// NumericForStmt is a numeric for loop, such as for i = 1, 10, 2 do print(i) end.
type NumericForStmt struct {
	For    token.Token
	Var    *Ident
	Init   Expr
	Limit  Expr
	Step   Expr // Step is nil if omitted.
	Body   *Block
	EndTok token.Token
	stmt
}

func (s *NumericForStmt) Start() token.Position { return s.For.StartPos }
func (s *NumericForStmt) End() token.Position   { return s.EndTok.EndPos }

// GenericForStmt is a generic for loop, such as for k, v in pairs(t) do print(k, v) end.
type GenericForStmt struct {
	For    token.Token
	Names  []*Ident
	Exprs  []Expr
	Body   *Block
	EndTok token.Token
	stmt
}

func (s *GenericForStmt) Start() token.Position { return s.For.StartPos }
func (s *GenericForStmt) End() token.Position   { return s.EndTok.EndPos }

// BreakStmt is a break statement.
type BreakStmt struct {
	Break token.Token
	stmt
}

func (s *BreakStmt) Start() token.Position { return s.Break.StartPos }
func (s *BreakStmt) End() token.Position   { return s.Break.EndPos }

// ReturnStmt is a return statement, such as return a, b.
type ReturnStmt struct {
	Return token.Token
	Values []Expr
	stmt
}

func (s *ReturnStmt) Start() token.Position { return s.Return.StartPos }
func (s *ReturnStmt) End() token.Position {
	if len(s.Values) > 0 {
		return s.Values[len(s.Values)-1].End()
	}
	return s.Return.EndPos
}

// EmptyStmt is a lone semicolon.
type EmptyStmt struct {
	Semicolon token.Token
	stmt
}

func (s *EmptyStmt) Start() token.Position { return s.Semicolon.StartPos }
func (s *EmptyStmt) End() token.Position   { return s.Semicolon.EndPos }

// Expr is the interface which all expression nodes implement.
//
//gosumtype:decl Expr
type Expr interface {
	Node
	isExpr()
}

type expr struct {
	node
}

func (expr) isExpr() {}

// LiteralExpr is a literal value, such as 123, "abc", true, nil or ....
type LiteralExpr struct {
	Value token.Token
	expr
}

func (e *LiteralExpr) Start() token.Position { return e.Value.StartPos }
func (e *LiteralExpr) End() token.Position   { return e.Value.EndPos }

// IdentExpr is a reference to a variable.
type IdentExpr struct {
	Ident *Ident
	expr
}

func (e *IdentExpr) Start() token.Position { return e.Ident.Start() }
func (e *IdentExpr) End() token.Position   { return e.Ident.End() }

// FunctionExpr is an anonymous function, such as function(x) return x end.
type FunctionExpr struct {
	Function token.Token
	Func     *FunctionBody
	expr
}

func (e *FunctionExpr) Start() token.Position { return e.Function.StartPos }
func (e *FunctionExpr) End() token.Position   { return e.Func.End() }

// TableExpr is a table constructor, such as {1, 2, x = 3, [y] = 4}.
type TableExpr struct {
	LeftBrace  token.Token
	Fields     []*TableField
	RightBrace token.Token
	expr
}

func (e *TableExpr) Start() token.Position { return e.LeftBrace.StartPos }
func (e *TableExpr) End() token.Position   { return e.RightBrace.EndPos }

// TableField is a field of a table constructor. Positional fields have neither Key nor Name set.
type TableField struct {
	Name  token.Token // Name is set for fields of the form name = value.
	Key   Expr        // Key is set for fields of the form [key] = value.
	Value Expr
	node
}

func (f *TableField) Start() token.Position {
	if f.Name.Type == token.Ident {
		return f.Name.StartPos
	}
	if f.Key != nil {
		return f.Key.Start()
	}
	return f.Value.Start()
}
func (f *TableField) End() token.Position { return f.Value.End() }

// BinaryExpr is a binary operator expression, such as a + b.
type BinaryExpr struct {
	Left  Expr
	Op    token.Token
	Right Expr
	expr
}

func (e *BinaryExpr) Start() token.Position { return e.Left.Start() }
func (e *BinaryExpr) End() token.Position   { return e.Right.End() }

// UnaryExpr is a unary operator expression, such as -a, not b or #c.
type UnaryExpr struct {
	Op    token.Token
	Right Expr
	expr
}

func (e *UnaryExpr) Start() token.Position { return e.Op.StartPos }
func (e *UnaryExpr) End() token.Position   { return e.Right.End() }

// ParenExpr is a parenthesised expression, such as (a + b).
type ParenExpr struct {
	LeftParen  token.Token
	Expr       Expr
	RightParen token.Token
	expr
}

func (e *ParenExpr) Start() token.Position { return e.LeftParen.StartPos }
func (e *ParenExpr) End() token.Position   { return e.RightParen.EndPos }

// IndexExpr is an index expression, such as t[k].
type IndexExpr struct {
	Object       Expr
	Key          Expr
	RightBracket token.Token
	expr
}

func (e *IndexExpr) Start() token.Position { return e.Object.Start() }
func (e *IndexExpr) End() token.Position   { return e.RightBracket.EndPos }

// FieldExpr is a field access, such as t.name.
type FieldExpr struct {
	Object Expr
	Name   token.Token
	expr
}

func (e *FieldExpr) Start() token.Position { return e.Object.Start() }
func (e *FieldExpr) End() token.Position   { return e.Name.EndPos }

// CallExpr is a function call, such as f(a, b), f"str" or f{1, 2}.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	EndPos token.Position
	expr
}

func (e *CallExpr) Start() token.Position { return e.Callee.Start() }
func (e *CallExpr) End() token.Position   { return e.EndPos }

// MethodCallExpr is a method call, such as obj:method(a, b).
type MethodCallExpr struct {
	Object Expr
	Name   token.Token
	Args   []Expr
	EndPos token.Position
	expr
}

func (e *MethodCallExpr) Start() token.Position { return e.Object.Start() }
func (e *MethodCallExpr) End() token.Position   { return e.EndPos }
