package lsp

// This file contains handlers for the methods described under
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#lifeCycleMessages.

import (
	"fmt"
	"runtime/debug"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/marcuscaisey/luals/luals/jsonrpc"
)

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#initialize
func (h *Handler) initialize(params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	if h.initialized {
		return nil, jsonrpc.NewInvalidRequestError("Server already initialized")
	}
	h.initialized = true

	if textDocument := params.Capabilities.TextDocument; textDocument != nil && textDocument.Hover != nil {
		if formats := textDocument.Hover.ContentFormat; len(formats) > 0 {
			h.hoverFormat = formats[0]
		}
	}
	if err := h.settings.Merge(params.InitializationOptions); err != nil {
		h.log.Warningf("Ignoring initializationOptions: %s", err)
	}

	version, err := BuildVersion()
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if params.ClientInfo != nil {
		h.zap.Info("Initialized", zap.String("client", params.ClientInfo.Name), zap.String("clientVersion", params.ClientInfo.Version))
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			HoverProvider:         true,
			CompletionProvider:    &protocol.CompletionOptions{},
			SignatureHelpProvider: &protocol.SignatureHelpOptions{},
			DefinitionProvider:    true,
			ReferencesProvider:    true,
			RenameProvider:        true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "luals",
			Version: version,
		},
	}, nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#initialized
func (h *Handler) initializedNotification(*protocol.InitializedParams) error {
	// No further initialisation needed
	return nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#shutdown
func (h *Handler) shutdown(*struct{}) (any, error) {
	h.shuttingDown = true
	return nil, nil
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#exit
func (h *Handler) exitNotification(*struct{}) error {
	code := 0
	if !h.shuttingDown {
		code = 1
	}
	h.zap.Info("Exiting", zap.Int("code", code))
	h.exit(code)
	return nil
}

// BuildVersion returns the version of the running binary, derived from the VCS information embedded when it was
// built.
func BuildVersion() (string, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown", nil
	}
	var vcsRevision string
	var vcsTime time.Time
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.time":
			var err error
			vcsTime, err = time.Parse(time.RFC3339, setting.Value)
			if err != nil {
				return "", fmt.Errorf("building version string: parsing vcs.time value from build info: %s", err)
			}
		}
	}
	if len(vcsRevision) < 8 || vcsTime.IsZero() {
		return "dev", nil
	}
	return vcsTime.Format(time.DateOnly) + "-" + vcsRevision[:8], nil
}
