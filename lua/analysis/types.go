package analysis

import (
	"strings"

	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/token"
)

// Type descriptors. Functions are described by their parameter list, such as function(a, b).
const (
	typeNil      = "nil"
	typeBoolean  = "boolean"
	typeNumber   = "number"
	typeInteger  = "integer"
	typeString   = "string"
	typeTable    = "table"
	typeFunction = "function"
	typeAny      = "any"
)

// builtinResults holds the result types of calls to built-in functions which have a fixed result type.
var builtinResults = map[string]string{
	"tostring":     typeString,
	"tonumber":     typeNumber,
	"type":         typeString,
	"setmetatable": typeTable,
	"rawlen":       typeNumber,
	"rawequal":     typeBoolean,
}

func functionType(params []*ast.Ident, vararg bool) string {
	names := make([]string, 0, len(params)+1)
	for _, param := range params {
		names = append(names, param.Name())
	}
	if vararg {
		names = append(names, "...")
	}
	return typeFunction + "(" + strings.Join(names, ", ") + ")"
}

func isFunction(typ string) bool {
	return strings.HasPrefix(typ, typeFunction)
}

func isNumeric(typ string) bool {
	return typ == typeNumber || typ == typeInteger
}

// sameType reports whether values of the two types can be used interchangeably.
func sameType(a, b string) bool {
	switch {
	case a == b:
		return true
	case isNumeric(a) && isNumeric(b):
		return true
	case isFunction(a) && isFunction(b):
		return true
	default:
		return false
	}
}

// kind returns the name of the kind of value described by typ for use in a message.
func kind(typ string) string {
	if isFunction(typ) {
		return typeFunction
	}
	if typ == typeInteger {
		return typeNumber
	}
	return typ
}

func (c *checker) globalType(name string) string {
	if typ, ok := c.globalTypes[name]; ok {
		return typ
	}
	return typeAny
}

func (c *checker) numberType() string {
	if c.integerMode {
		return typeInteger
	}
	return typeNumber
}

// checkExpr resolves the identifiers in an expression, checks its operands and returns its type.
func (c *checker) checkExpr(expr ast.Expr) string {
	switch expr := expr.(type) {
	case *ast.LiteralExpr:
		return c.literalType(expr.Value)
	case *ast.IdentExpr:
		return c.read(expr.Ident)
	case *ast.FunctionExpr:
		return c.checkFunction(expr.Func, nil)
	case *ast.TableExpr:
		for _, field := range expr.Fields {
			if field.Key != nil {
				c.checkExpr(field.Key)
			}
			c.checkExpr(field.Value)
		}
		return typeTable
	case *ast.BinaryExpr:
		return c.checkBinaryExpr(expr)
	case *ast.UnaryExpr:
		return c.checkUnaryExpr(expr)
	case *ast.ParenExpr:
		return c.checkExpr(expr.Expr)
	case *ast.IndexExpr:
		c.checkIndexed(expr.Object)
		c.checkExpr(expr.Key)
		return typeAny
	case *ast.FieldExpr:
		c.checkIndexed(expr.Object)
		return typeAny
	case *ast.CallExpr:
		calleeType := c.checkExpr(expr.Callee)
		c.checkCallee(expr.Callee, calleeType)
		for _, arg := range expr.Args {
			c.checkExpr(arg)
		}
		if ident, ok := expr.Callee.(*ast.IdentExpr); ok && ident.Ident.Scope == ast.GlobalScope {
			if typ, ok := builtinResults[ident.Ident.Name()]; ok && !c.globalWrites[ident.Ident.Name()] {
				return typ
			}
		}
		return typeAny
	case *ast.MethodCallExpr:
		c.checkIndexed(expr.Object)
		for _, arg := range expr.Args {
			c.checkExpr(arg)
		}
		return typeAny
	}
	return typeAny
}

func (c *checker) literalType(tok token.Token) string {
	switch tok.Type {
	case token.Number:
		return c.numberType()
	case token.String:
		return typeString
	case token.True, token.False:
		return typeBoolean
	case token.Nil:
		return typeNil
	default:
		return typeAny
	}
}

func (c *checker) checkBinaryExpr(expr *ast.BinaryExpr) string {
	left := c.checkExpr(expr.Left)
	right := c.checkExpr(expr.Right)
	switch expr.Op.Type {
	case token.Plus, token.Minus, token.Asterisk, token.Slash, token.DoubleSlash, token.Percent, token.Caret:
		c.checkArithmeticOperand(expr.Left, left)
		c.checkArithmeticOperand(expr.Right, right)
		if expr.Op.Type == token.Slash || expr.Op.Type == token.Caret {
			return typeNumber
		}
		if left == typeInteger && right == typeInteger {
			return typeInteger
		}
		return typeNumber
	case token.DotDot:
		c.checkConcatOperand(expr.Left, left)
		c.checkConcatOperand(expr.Right, right)
		return typeString
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual, token.EqualEqual, token.TildeEqual:
		return typeBoolean
	case token.And, token.Or:
		if left == right {
			return left
		}
		return typeAny
	}
	return typeAny
}

func (c *checker) checkUnaryExpr(expr *ast.UnaryExpr) string {
	right := c.checkExpr(expr.Right)
	switch expr.Op.Type {
	case token.Minus:
		c.checkArithmeticOperand(expr.Right, right)
		if right == typeInteger {
			return typeInteger
		}
		return typeNumber
	case token.Not:
		return typeBoolean
	case token.Hash:
		switch right {
		case typeString, typeTable, typeAny:
		default:
			c.addf(expr.Right, TagType, "attempt to get length of a %s value%s", kind(right), describeOperand(expr.Right))
		}
		return c.numberType()
	}
	return typeAny
}

func (c *checker) checkArithmeticOperand(operand ast.Expr, typ string) {
	switch {
	case isNumeric(typ), typ == typeString, typ == typeAny:
	default:
		c.addf(operand, TagType, "attempt to perform arithmetic on a %s value%s", kind(typ), describeOperand(operand))
	}
}

func (c *checker) checkConcatOperand(operand ast.Expr, typ string) {
	switch {
	case isNumeric(typ), typ == typeString, typ == typeAny:
	default:
		c.addf(operand, TagType, "attempt to concatenate a %s value%s", kind(typ), describeOperand(operand))
	}
}

// checkIndexed checks an expression which is being indexed.
func (c *checker) checkIndexed(object ast.Expr) {
	typ := c.checkExpr(object)
	switch {
	case typ == typeTable, typ == typeString, typ == typeAny:
	default:
		c.addf(object, TagType, "attempt to index a %s value%s", kind(typ), describeOperand(object))
	}
}

func (c *checker) checkCallee(callee ast.Expr, typ string) {
	switch {
	case isFunction(typ), typ == typeTable, typ == typeAny:
	default:
		c.addf(callee, TagCall, "attempt to call a %s value%s", kind(typ), describeOperand(callee))
	}
}

// describeOperand returns a suffix naming the variable which an operand refers to, if any.
func describeOperand(expr ast.Expr) string {
	if ident, ok := expr.(*ast.IdentExpr); ok {
		if ident.Ident.Scope == ast.GlobalScope {
			return " (global " + ident.Ident.Name() + ")"
		}
		return " (local " + ident.Ident.Name() + ")"
	}
	return ""
}
