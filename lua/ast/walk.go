package ast

import "iter"

// Walk traverses an AST in depth-first order: It starts by calling f(node); node must not be nil. If f returns true,
// Walk invokes f recursively for each of the non-nil children of node. Children are visited in the order that they
// appear in the source.
func Walk(node Node, f func(Node) bool) {
	if !f(node) {
		return
	}
	switch node := node.(type) {
	case *Chunk:
		Walk(node.Block, f)
	case *Block:
		walkSlice(node.Stmts, f)
	case *Ident:
	case *FunctionBody:
		walkSlice(node.Params, f)
		Walk(node.Body, f)
	case *LocalStmt:
		walkSlice(node.Names, f)
		walkSlice(node.Values, f)
	case *LocalFunctionStmt:
		Walk(node.Name, f)
		Walk(node.Func, f)
	case *FunctionStmt:
		Walk(node.Name, f)
		Walk(node.Func, f)
	case *AssignStmt:
		walkSlice(node.Targets, f)
		walkSlice(node.Values, f)
	case *CallStmt:
		Walk(node.Call, f)
	case *DoStmt:
		Walk(node.Body, f)
	case *WhileStmt:
		Walk(node.Condition, f)
		Walk(node.Body, f)
	case *RepeatStmt:
		Walk(node.Body, f)
		Walk(node.Condition, f)
	case *IfStmt:
		walkSlice(node.Clauses, f)
		if node.Else != nil {
			Walk(node.Else, f)
		}
	case *IfClause:
		Walk(node.Condition, f)
		Walk(node.Body, f)
	case *NumericForStmt:
		Walk(node.Var, f)
		Walk(node.Init, f)
		Walk(node.Limit, f)
		if node.Step != nil {
			Walk(node.Step, f)
		}
		Walk(node.Body, f)
	case *GenericForStmt:
		walkSlice(node.Names, f)
		walkSlice(node.Exprs, f)
		Walk(node.Body, f)
	case *BreakStmt:
	case *ReturnStmt:
		walkSlice(node.Values, f)
	case *EmptyStmt:
	case *LiteralExpr:
	case *IdentExpr:
		Walk(node.Ident, f)
	case *FunctionExpr:
		Walk(node.Func, f)
	case *TableExpr:
		walkSlice(node.Fields, f)
	case *TableField:
		if node.Key != nil {
			Walk(node.Key, f)
		}
		Walk(node.Value, f)
	case *BinaryExpr:
		Walk(node.Left, f)
		Walk(node.Right, f)
	case *UnaryExpr:
		Walk(node.Right, f)
	case *ParenExpr:
		Walk(node.Expr, f)
	case *IndexExpr:
		Walk(node.Object, f)
		Walk(node.Key, f)
	case *FieldExpr:
		Walk(node.Object, f)
	case *CallExpr:
		Walk(node.Callee, f)
		walkSlice(node.Args, f)
	case *MethodCallExpr:
		Walk(node.Object, f)
		walkSlice(node.Args, f)
	}
}

func walkSlice[T Node](nodes []T, f func(Node) bool) {
	for _, node := range nodes {
		Walk(node, f)
	}
}

// Idents returns an iterator over every identifier in the AST rooted at node, both declarations and uses, in
// traversal order.
func Idents(node Node) iter.Seq[*Ident] {
	return func(yield func(*Ident) bool) {
		stopped := false
		Walk(node, func(n Node) bool {
			if stopped {
				return false
			}
			if ident, ok := n.(*Ident); ok && !yield(ident) {
				stopped = true
				return false
			}
			return true
		})
	}
}
