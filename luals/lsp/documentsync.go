package lsp

// This file contains handlers for the methods described under
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_synchronization.

import (
	"fmt"
	"slices"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/luals/jsonrpc"
)

type document struct {
	// Client provided
	URI     protocol.DocumentURI
	Version int32
	Text    string

	// Server generated
	Chunk       *ast.Chunk // nil unless the last analysis found no errors
	Diagnostics []protocol.Diagnostic
}

// document returns the document with the given URI, or an error if it doesn't exist.
func (h *Handler) document(docURI protocol.DocumentURI) (*document, error) {
	doc, ok := h.docs[docURI]
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Document not found", map[string]any{"uri": docURI})
	}
	return doc, nil
}

func (h *Handler) sortedDocURIs() []protocol.DocumentURI {
	uris := make([]protocol.DocumentURI, 0, len(h.docs))
	for docURI := range h.docs {
		uris = append(uris, docURI)
	}
	slices.Sort(uris)
	return uris
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_didOpen
func (h *Handler) textDocumentDidOpen(params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	h.docs[item.URI] = &document{
		URI:     item.URI,
		Version: item.Version,
		Text:    item.Text,
	}
	h.typecheck(item.URI)
	return nil
}

// didChangeTextDocumentParams is [protocol.DidChangeTextDocumentParams] with changes whose range can be absent, so
// that incremental changes can be told apart from full ones.
type didChangeTextDocumentParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChangeEvent                     `json:"contentChanges"`
}

type contentChangeEvent struct {
	Range *protocol.Range `json:"range,omitempty"`
	Text  string          `json:"text"`
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_didChange
func (h *Handler) textDocumentDidChange(params *didChangeTextDocumentParams) error {
	doc, err := h.document(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("textDocument/didChange: %w", err)
	}
	text := doc.Text
	for _, change := range params.ContentChanges {
		if change.Range != nil {
			h.log.Errorf("textDocument/didChange: incremental changes are not supported, ignoring change to %s", doc.URI)
			return nil
		}
		text = change.Text
	}
	doc.Version = params.TextDocument.Version
	doc.Text = text
	h.typecheck(doc.URI)
	return nil
}

// didSaveTextDocumentParams is [protocol.DidSaveTextDocumentParams] with text which can be absent.
type didSaveTextDocumentParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Text         *string                         `json:"text,omitempty"`
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_didSave
func (h *Handler) textDocumentDidSave(params *didSaveTextDocumentParams) error {
	doc, err := h.document(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("textDocument/didSave: %w", err)
	}
	if params.Text != nil {
		doc.Text = *params.Text
	}
	h.typecheck(doc.URI)
	return nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_didClose
func (h *Handler) textDocumentDidClose(params *protocol.DidCloseTextDocumentParams) error {
	doc, err := h.document(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("textDocument/didClose: %w", err)
	}
	delete(h.docs, doc.URI)
	return h.client.TextDocumentPublishDiagnostics(&protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

// uriFilename returns the filename which a URI refers to, or the URI itself if it doesn't have the file scheme.
func uriFilename(docURI protocol.DocumentURI) string {
	if strings.HasPrefix(string(docURI), uri.FileScheme+"://") {
		return uri.URI(docURI).Filename()
	}
	return string(docURI)
}
