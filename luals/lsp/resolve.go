package lsp

import (
	"iter"

	"go.lsp.dev/protocol"

	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/token"
	"github.com/marcuscaisey/luals/luals/jsonrpc"
)

// Error codes returned by the language feature requests. They're in the range reserved for server errors.
const (
	// SyntaxOrTypeError is returned when a document can't be used because it has error diagnostics.
	SyntaxOrTypeError jsonrpc.ErrorCode = -32000
	// IdentifierNotFound is returned when there's no identifier at the requested position.
	IdentifierNotFound jsonrpc.ErrorCode = -32010
)

var (
	syntaxOrTypeErr  = jsonrpc.NewError(SyntaxOrTypeError, "syntax or type error", nil)
	identNotFoundErr = jsonrpc.NewError(IdentifierNotFound, "identifier not found", nil)
)

// resolve returns the analysed chunk of a document and the identifier in it at a position.
// If more than one identifier contains the position, the shortest is returned. Of equally short identifiers, the first
// in the chunk wins.
func (h *Handler) resolve(docURI protocol.DocumentURI, pos protocol.Position) (*ast.Chunk, *ast.Ident, error) {
	doc, err := h.document(docURI)
	if err != nil {
		return nil, nil, err
	}
	chunk := h.typecheck(docURI)
	if chunk == nil {
		return nil, nil, syntaxOrTypeErr
	}

	target := tokenPosition(token.NewFile(uriFilename(docURI), []byte(doc.Text)), pos)
	var found *ast.Ident
	for ident := range ast.Idents(chunk) {
		start := ident.Start()
		length := len(ident.Name())
		if start.Line != target.Line || target.Column < start.Column || target.Column >= start.Column+length {
			continue
		}
		if found == nil || length < len(found.Name()) {
			found = ident
		}
	}
	if found == nil {
		return nil, nil, identNotFoundErr
	}
	return chunk, found, nil
}

// occurrences returns every identifier in a chunk which refers to the same binding as ident, in the order that they
// appear.
func occurrences(chunk *ast.Chunk, ident *ast.Ident) iter.Seq[*ast.Ident] {
	return func(yield func(*ast.Ident) bool) {
		for other := range ast.Idents(chunk) {
			if sameBinding(other, ident) && !yield(other) {
				return
			}
		}
	}
}

// declaration returns the first identifier in a chunk which refers to the same binding as ident. For locals, this is
// where the binding is declared.
func declaration(chunk *ast.Chunk, ident *ast.Ident) *ast.Ident {
	for other := range ast.Idents(chunk) {
		if sameBinding(other, ident) {
			return other
		}
	}
	return ident
}

func sameBinding(x, y *ast.Ident) bool {
	return x.Name() == y.Name() && x.Scope == y.Scope
}
