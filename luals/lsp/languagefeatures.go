package lsp

// This file contains handlers for the methods described under
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#languageFeatures.

import (
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/marcuscaisey/luals/lua/token"
	"github.com/marcuscaisey/luals/luals/jsonrpc"
)

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_hover
func (h *Handler) textDocumentHover(params *protocol.HoverParams) (*protocol.Hover, error) {
	_, ident, err := h.resolve(params.TextDocument.URI, params.Position)
	if err != nil {
		return nil, err
	}

	typ := ident.Type
	if typ == "" {
		typ = "any"
	}
	header := fmt.Sprintf("%s: %s", ident.Name(), typ)

	contents := header
	if h.hoverFormat == protocol.Markdown {
		contents = fmt.Sprintf("```lua\n%s\n```", header)
	}

	rang := newRange(ident)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  h.hoverFormat,
			Value: contents,
		},
		Range: &rang,
	}, nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_definition
func (h *Handler) textDocumentDefinition(params *protocol.DefinitionParams) (*protocol.Location, error) {
	chunk, ident, err := h.resolve(params.TextDocument.URI, params.Position)
	if err != nil {
		return nil, err
	}
	return &protocol.Location{
		URI:   params.TextDocument.URI,
		Range: newRange(declaration(chunk, ident)),
	}, nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_references
func (h *Handler) textDocumentReferences(params *protocol.ReferenceParams) ([]protocol.Location, error) {
	chunk, ident, err := h.resolve(params.TextDocument.URI, params.Position)
	if err != nil {
		return nil, err
	}
	// The declaration is always included, whatever the client asks for.
	locations := []protocol.Location{}
	for occurrence := range occurrences(chunk, ident) {
		locations = append(locations, protocol.Location{
			URI:   params.TextDocument.URI,
			Range: newRange(occurrence),
		})
	}
	return locations, nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_rename
func (h *Handler) textDocumentRename(params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	if !token.IsValidIdent(params.NewName) {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("%q is not a valid identifier", params.NewName))
	}
	chunk, ident, err := h.resolve(params.TextDocument.URI, params.Position)
	if err != nil {
		return nil, err
	}
	edits := []protocol.TextEdit{}
	for occurrence := range occurrences(chunk, ident) {
		edits = append(edits, protocol.TextEdit{
			Range:   newRange(occurrence),
			NewText: params.NewName,
		})
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentURI][]protocol.TextEdit{
			params.TextDocument.URI: edits,
		},
	}, nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_completion
func (h *Handler) textDocumentCompletion(params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	if _, err := h.document(params.TextDocument.URI); err != nil {
		return nil, err
	}
	return &protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_signatureHelp
func (h *Handler) textDocumentSignatureHelp(params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	if _, err := h.document(params.TextDocument.URI); err != nil {
		return nil, err
	}
	return nil, nil
}
