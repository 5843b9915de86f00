package lsp

import (
	"go.lsp.dev/protocol"
)

// Notifier sends notifications to the client. It's implemented by [*jsonrpc.Client].
type Notifier interface {
	Notify(method string, params any) error
}

type client struct {
	notifier Notifier
}

func newClient(notifier Notifier) *client {
	return &client{
		notifier: notifier,
	}
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_publishDiagnostics
func (c *client) TextDocumentPublishDiagnostics(params *protocol.PublishDiagnosticsParams) error {
	return c.notifier.Notify("textDocument/publishDiagnostics", params)
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#window_logMessage
func (c *client) WindowLogMessage(params *protocol.LogMessageParams) error {
	return c.notifier.Notify("window/logMessage", params)
}
