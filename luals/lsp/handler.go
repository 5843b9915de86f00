// Package lsp implements a JSON-RPC 2.0 server handler which implements the Language Server Protocol for Lua.
package lsp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/marcuscaisey/luals/luals/config"
	"github.com/marcuscaisey/luals/luals/jsonrpc"
)

// Handler responds to JSON-RPC requests and notifications. A Handler holds the state of a single session and must
// not be shared between connections.
type Handler struct {
	client *client
	log    *logger
	zap    *zap.Logger
	exit   func(code int)
	routes map[string]route

	initialized  bool
	shuttingDown bool
	hoverFormat  protocol.MarkupKind
	docs         map[protocol.DocumentURI]*document
	settings     settings
}

// Option can be passed to [NewHandler] to configure its behaviour.
type Option func(*Handler)

// WithLogger sets the logger which the handler logs to. By default, nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.zap = logger
	}
}

// WithExitFunc sets the function which is called to terminate the process when an exit notification is received. By
// default, this is [os.Exit].
func WithExitFunc(exit func(code int)) Option {
	return func(h *Handler) {
		h.exit = exit
	}
}

// WithAnalysisDefaults sets the analysis settings which are used until the client overrides them.
func WithAnalysisDefaults(cfg config.Analysis) Option {
	return func(h *Handler) {
		h.settings = newSettings(cfg)
	}
}

// NewHandler returns a new Handler which sends notifications to the client through notifier.
func NewHandler(notifier Notifier, opts ...Option) *Handler {
	h := &Handler{
		client:      newClient(notifier),
		zap:         zap.NewNop(),
		exit:        os.Exit,
		hoverFormat: protocol.PlainText,
		docs:        map[protocol.DocumentURI]*document{},
		settings:    newSettings(config.Default().Analysis),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = newLogger(h.client, h.zap)
	h.routes = map[string]route{
		"initialize":                       request(h.initialize),
		"initialized":                      notification(h.initializedNotification),
		"shutdown":                         request(h.shutdown),
		"exit":                             notification(h.exitNotification),
		"textDocument/didOpen":             notification(h.textDocumentDidOpen),
		"textDocument/didChange":           notification(h.textDocumentDidChange),
		"textDocument/didSave":             notification(h.textDocumentDidSave),
		"textDocument/didClose":            notification(h.textDocumentDidClose),
		"workspace/didChangeConfiguration": notification(h.workspaceDidChangeConfiguration),
		"textDocument/hover":               request(h.textDocumentHover),
		"textDocument/definition":          request(h.textDocumentDefinition),
		"textDocument/references":          request(h.textDocumentReferences),
		"textDocument/rename":              request(h.textDocumentRename),
		"textDocument/completion":          request(h.textDocumentCompletion),
		"textDocument/signatureHelp":       request(h.textDocumentSignatureHelp),
	}
	return h
}

var (
	notInitializedErr = jsonrpc.NewError(jsonrpc.ServerNotInitialized, "Server not initialized", nil)
	shuttingDownErr   = jsonrpc.NewInvalidRequestError("Server shutting down")
)

// HandleRequest responds to a JSON-RPC request.
func (h *Handler) HandleRequest(method string, params *json.RawMessage) (any, error) {
	if !h.initialized && method != "initialize" {
		return nil, notInitializedErr
	}
	if h.shuttingDown {
		return nil, shuttingDownErr
	}
	r, ok := h.routes[method]
	if !ok || r.handleRequest == nil {
		return nil, jsonrpc.NewMethodNotFoundError(method)
	}
	return r.handleRequest(params)
}

// HandleNotification responds to a JSON-RPC notification.
func (h *Handler) HandleNotification(method string, params *json.RawMessage) error {
	if !h.initialized && method != "exit" {
		h.zap.Info("Dropping notification received before initialize", zap.String("method", method))
		return nil
	}
	if h.shuttingDown && method != "exit" {
		return shuttingDownErr
	}
	r, ok := h.routes[method]
	if !ok || r.handleNotification == nil {
		if strings.HasPrefix(method, "$/") {
			return nil
		}
		h.log.Warningf("Unknown notification method %q", method)
		return nil
	}
	return r.handleNotification(params)
}

// route is an entry of the method table. Exactly one of its fields is set.
type route struct {
	handleRequest      func(params *json.RawMessage) (any, error)
	handleNotification func(params *json.RawMessage) error
}

func request[P, R any](handle func(*P) (R, error)) route {
	return route{
		handleRequest: func(rawParams *json.RawMessage) (any, error) {
			params, err := decodeParams[P](rawParams)
			if err != nil {
				return nil, err
			}
			return handle(params)
		},
	}
}

func notification[P any](handle func(*P) error) route {
	return route{
		handleNotification: func(rawParams *json.RawMessage) error {
			params, err := decodeParams[P](rawParams)
			if err != nil {
				return err
			}
			return handle(params)
		},
	}
}

func decodeParams[P any](rawParams *json.RawMessage) (*P, error) {
	params := new(P)
	if rawParams == nil {
		return params, nil
	}
	if err := json.Unmarshal(*rawParams, params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("decoding params: %s", err))
	}
	return params, nil
}
