package ast

import (
	"fmt"
	"strings"
)

// Sprint formats an AST Node as an indented tree with one node per line. Identifiers are shown with their scope and
// type.
func Sprint(node Node) string {
	var b strings.Builder
	sprint(&b, node, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func sprint(b *strings.Builder, node Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch node := node.(type) {
	case *Ident:
		fmt.Fprintf(b, "%s%s (scope %d)", indent, node.Name(), node.Scope)
		if node.Type != "" {
			fmt.Fprintf(b, ": %s", node.Type)
		}
		b.WriteString("\n")
		return
	case *LiteralExpr:
		fmt.Fprintf(b, "%s%s\n", indent, node.Value.Lexeme)
		return
	case *BinaryExpr:
		fmt.Fprintf(b, "%sBinaryExpr %s\n", indent, node.Op.Lexeme)
	case *UnaryExpr:
		fmt.Fprintf(b, "%sUnaryExpr %s\n", indent, node.Op.Lexeme)
	case *FieldExpr:
		fmt.Fprintf(b, "%sFieldExpr .%s\n", indent, node.Name.Lexeme)
	case *MethodCallExpr:
		fmt.Fprintf(b, "%sMethodCallExpr :%s\n", indent, node.Name.Lexeme)
	case *TableField:
		if node.Name.Lexeme != "" {
			fmt.Fprintf(b, "%sTableField %s\n", indent, node.Name.Lexeme)
		} else {
			fmt.Fprintf(b, "%sTableField\n", indent)
		}
	default:
		fmt.Fprintf(b, "%s%s\n", indent, strings.TrimPrefix(fmt.Sprintf("%T", node), "*ast."))
	}
	Walk(node, func(child Node) bool {
		if child == node {
			return true
		}
		sprint(b, child, depth+1)
		return false
	})
}
