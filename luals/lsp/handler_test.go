package lsp_test

import (
	"encoding/json"
	"errors"
	"testing"

	"go.lsp.dev/protocol"

	"github.com/marcuscaisey/luals/luals/config"
	"github.com/marcuscaisey/luals/luals/jsonrpc"
	"github.com/marcuscaisey/luals/luals/lsp"
	"github.com/marcuscaisey/luals/test/luatest"
)

const testURI = protocol.DocumentURI("file:///test.lua")

type recordedNotification struct {
	Method string
	Params any
}

type recorder struct {
	notifications []recordedNotification
}

func (r *recorder) Notify(method string, params any) error {
	r.notifications = append(r.notifications, recordedNotification{Method: method, Params: params})
	return nil
}

// diagnostics returns the diagnostics which were last published for uri.
func (r *recorder) diagnostics(t *testing.T, uri protocol.DocumentURI) []protocol.Diagnostic {
	t.Helper()
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.Method != "textDocument/publishDiagnostics" {
			continue
		}
		params := n.Params.(*protocol.PublishDiagnosticsParams)
		if params.URI == uri {
			return params.Diagnostics
		}
	}
	t.Fatalf("no diagnostics published for %s", uri)
	return nil
}

func (r *recorder) count(method string) int {
	n := 0
	for _, notification := range r.notifications {
		if notification.Method == method {
			n++
		}
	}
	return n
}

func mustMarshal(t *testing.T, v any) *json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshalling %v: %s", v, err)
	}
	raw := json.RawMessage(data)
	return &raw
}

type session struct {
	t        *testing.T
	handler  *lsp.Handler
	recorder *recorder
	exitCode int
}

func newSession(t *testing.T, initParams any, opts ...lsp.Option) *session {
	t.Helper()
	s := &session{t: t, recorder: &recorder{}, exitCode: -1}
	opts = append(opts, lsp.WithExitFunc(func(code int) { s.exitCode = code }))
	s.handler = lsp.NewHandler(s.recorder, opts...)
	if initParams != nil {
		s.mustRequest("initialize", initParams)
		s.notify("initialized", map[string]any{})
	}
	return s
}

func (s *session) request(method string, params any) (any, error) {
	s.t.Helper()
	return s.handler.HandleRequest(method, mustMarshal(s.t, params))
}

func (s *session) mustRequest(method string, params any) any {
	s.t.Helper()
	result, err := s.request(method, params)
	if err != nil {
		s.t.Fatalf("%s returned error: %s", method, err)
	}
	return result
}

func (s *session) notify(method string, params any) {
	s.t.Helper()
	if err := s.handler.HandleNotification(method, mustMarshal(s.t, params)); err != nil {
		s.t.Fatalf("%s returned error: %s", method, err)
	}
}

func (s *session) open(text string) {
	s.t.Helper()
	s.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": testURI, "languageId": "lua", "version": 1, "text": text},
	})
}

func positionParams(line, character int) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{"uri": testURI},
		"position":     map[string]any{"line": line, "character": character},
	}
}

func newRange(line, startChar, endChar uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: startChar},
		End:   protocol.Position{Line: line, Character: endChar},
	}
}

func errorCode(t *testing.T, err error) jsonrpc.ErrorCode {
	t.Helper()
	var respErr *jsonrpc.ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("error %v is not a *jsonrpc.ResponseError", err)
	}
	return respErr.Code
}

var emptyInitParams = map[string]any{"capabilities": map[string]any{}}

func TestLifecycle(t *testing.T) {
	t.Run("request before initialize", func(t *testing.T) {
		s := newSession(t, nil)
		_, err := s.request("textDocument/hover", positionParams(0, 0))
		if got := errorCode(t, err); got != jsonrpc.ServerNotInitialized {
			t.Errorf("error code = %d, want %d", got, jsonrpc.ServerNotInitialized)
		}
	})

	t.Run("initialize result", func(t *testing.T) {
		s := newSession(t, nil)
		result := s.mustRequest("initialize", emptyInitParams).(*protocol.InitializeResult)
		if result.ServerInfo == nil || result.ServerInfo.Name != "luals" {
			t.Errorf("ServerInfo = %+v, want name luals", result.ServerInfo)
		}
		sync, ok := result.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
		if !ok {
			t.Fatalf("TextDocumentSync has type %T, want *protocol.TextDocumentSyncOptions", result.Capabilities.TextDocumentSync)
		}
		if sync.Change != protocol.TextDocumentSyncKindFull {
			t.Errorf("TextDocumentSync.Change = %v, want full", sync.Change)
		}
		_, err := s.request("initialize", emptyInitParams)
		if got := errorCode(t, err); got != jsonrpc.InvalidRequest {
			t.Errorf("second initialize error code = %d, want %d", got, jsonrpc.InvalidRequest)
		}
	})

	t.Run("request after shutdown", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		if result := s.mustRequest("shutdown", nil); result != nil {
			t.Errorf("shutdown returned %v, want nil", result)
		}
		_, err := s.request("textDocument/hover", positionParams(0, 0))
		if got := errorCode(t, err); got != jsonrpc.InvalidRequest {
			t.Errorf("error code = %d, want %d", got, jsonrpc.InvalidRequest)
		}
	})

	t.Run("exit after shutdown", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		s.mustRequest("shutdown", nil)
		s.notify("exit", nil)
		if s.exitCode != 0 {
			t.Errorf("exit code = %d, want 0", s.exitCode)
		}
	})

	t.Run("exit without shutdown", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		s.notify("exit", nil)
		if s.exitCode != 1 {
			t.Errorf("exit code = %d, want 1", s.exitCode)
		}
	})

	t.Run("unknown methods", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		_, err := s.request("textDocument/formatting", positionParams(0, 0))
		if got := errorCode(t, err); got != jsonrpc.MethodNotFound {
			t.Errorf("error code = %d, want %d", got, jsonrpc.MethodNotFound)
		}
		_, err = s.request("$/custom", map[string]any{})
		if got := errorCode(t, err); got != jsonrpc.MethodNotFound {
			t.Errorf("$/ request error code = %d, want %d", got, jsonrpc.MethodNotFound)
		}
		s.notify("$/cancelRequest", map[string]any{"id": 1})
		if got := s.recorder.count("window/logMessage"); got != 0 {
			t.Errorf("%d log messages sent for $/ notification, want 0", got)
		}
		s.notify("workspace/unknown", map[string]any{})
		if got := s.recorder.count("window/logMessage"); got != 1 {
			t.Errorf("%d log messages sent for unknown notification, want 1", got)
		}
	})

	t.Run("invalid params", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		_, err := s.request("textDocument/hover", []int{1})
		if got := errorCode(t, err); got != jsonrpc.InvalidParams {
			t.Errorf("error code = %d, want %d", got, jsonrpc.InvalidParams)
		}
	})
}

func TestDefinition(t *testing.T) {
	s := newSession(t, emptyInitParams)
	s.open("local x = 1\nprint(x)")

	for _, pos := range []protocol.Position{{Line: 0, Character: 6}, {Line: 1, Character: 6}} {
		result := s.mustRequest("textDocument/definition", positionParams(int(pos.Line), int(pos.Character)))
		want := &protocol.Location{URI: testURI, Range: newRange(0, 6, 7)}
		if diff := luatest.ComputeDiff(want, result); diff != "" {
			t.Errorf("definition at %d:%d returned incorrect location:\n%s", pos.Line, pos.Character, diff)
		}
	}

	result := s.mustRequest("textDocument/definition", positionParams(1, 1))
	want := &protocol.Location{URI: testURI, Range: newRange(1, 0, 5)}
	if diff := luatest.ComputeDiff(want, result); diff != "" {
		t.Errorf("definition of global returned incorrect location:\n%s", diff)
	}
}

func TestReferences(t *testing.T) {
	s := newSession(t, emptyInitParams)
	s.open("local x = 1\nprint(x)")

	params := positionParams(1, 6)
	params["context"] = map[string]any{"includeDeclaration": false}
	result := s.mustRequest("textDocument/references", params)
	want := []protocol.Location{
		{URI: testURI, Range: newRange(0, 6, 7)},
		{URI: testURI, Range: newRange(1, 6, 7)},
	}
	if diff := luatest.ComputeDiff(want, result); diff != "" {
		t.Errorf("references returned incorrect locations:\n%s", diff)
	}
}

func TestRename(t *testing.T) {
	src := luatest.Dedent(t, `
		local x = 1
		do
		  local x = 2
		  print(x)
		end
		print(x)
	`)

	tests := []struct {
		name     string
		position protocol.Position
		want     []protocol.TextEdit
	}{
		{
			name:     "inner binding",
			position: protocol.Position{Line: 3, Character: 8},
			want: []protocol.TextEdit{
				{Range: newRange(2, 8, 9), NewText: "y"},
				{Range: newRange(3, 8, 9), NewText: "y"},
			},
		},
		{
			name:     "outer binding",
			position: protocol.Position{Line: 5, Character: 6},
			want: []protocol.TextEdit{
				{Range: newRange(0, 6, 7), NewText: "y"},
				{Range: newRange(5, 6, 7), NewText: "y"},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newSession(t, emptyInitParams)
			s.open(src)
			params := positionParams(int(test.position.Line), int(test.position.Character))
			params["newName"] = "y"
			result := s.mustRequest("textDocument/rename", params)
			want := &protocol.WorkspaceEdit{Changes: map[protocol.DocumentURI][]protocol.TextEdit{testURI: test.want}}
			if diff := luatest.ComputeDiff(want, result); diff != "" {
				t.Errorf("rename returned incorrect edit:\n%s", diff)
			}
		})
	}

	for _, newName := range []string{"end", "1x", "", "a-b"} {
		t.Run("invalid name "+newName, func(t *testing.T) {
			s := newSession(t, emptyInitParams)
			s.open(src)
			params := positionParams(0, 6)
			params["newName"] = newName
			_, err := s.request("textDocument/rename", params)
			if got := errorCode(t, err); got != jsonrpc.InvalidParams {
				t.Errorf("error code = %d, want %d", got, jsonrpc.InvalidParams)
			}
		})
	}
}

func TestHover(t *testing.T) {
	tests := []struct {
		name       string
		initParams map[string]any
		want       protocol.MarkupContent
	}{
		{
			name: "markdown",
			initParams: map[string]any{"capabilities": map[string]any{
				"textDocument": map[string]any{"hover": map[string]any{"contentFormat": []string{"markdown", "plaintext"}}},
			}},
			want: protocol.MarkupContent{Kind: protocol.Markdown, Value: "```lua\nx: number\n```"},
		},
		{
			name:       "plain text",
			initParams: emptyInitParams,
			want:       protocol.MarkupContent{Kind: protocol.PlainText, Value: "x: number"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newSession(t, test.initParams)
			s.open("local x = 1\nprint(x)")
			result := s.mustRequest("textDocument/hover", positionParams(1, 6))
			rang := newRange(1, 6, 7)
			want := &protocol.Hover{Contents: test.want, Range: &rang}
			if diff := luatest.ComputeDiff(want, result); diff != "" {
				t.Errorf("hover returned incorrect result:\n%s", diff)
			}
		})
	}
}

func TestFeatureErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		position protocol.Position
		want     jsonrpc.ErrorCode
	}{
		{
			name:     "whitespace",
			src:      "local x = 1\n\nprint(x)",
			position: protocol.Position{Line: 1, Character: 0},
			want:     lsp.IdentifierNotFound,
		},
		{
			name:     "between tokens",
			src:      "local x = 1\nprint(x)",
			position: protocol.Position{Line: 0, Character: 8},
			want:     lsp.IdentifierNotFound,
		},
		{
			name:     "keyword",
			src:      "local x = 1\nprint(x)",
			position: protocol.Position{Line: 0, Character: 2},
			want:     lsp.IdentifierNotFound,
		},
		{
			name:     "syntax error",
			src:      "local x = ",
			position: protocol.Position{Line: 0, Character: 6},
			want:     lsp.SyntaxOrTypeError,
		},
		{
			name:     "type error",
			src:      "local n = 1\nlocal m = #n\nprint(m)",
			position: protocol.Position{Line: 0, Character: 6},
			want:     lsp.SyntaxOrTypeError,
		},
	}
	methods := []string{"textDocument/hover", "textDocument/definition", "textDocument/references", "textDocument/rename"}
	for _, test := range tests {
		for _, method := range methods {
			t.Run(test.name+" "+method, func(t *testing.T) {
				s := newSession(t, emptyInitParams)
				s.open(test.src)
				params := positionParams(int(test.position.Line), int(test.position.Character))
				params["newName"] = "y"
				_, err := s.request(method, params)
				if got := errorCode(t, err); got != test.want {
					t.Errorf("error code = %d, want %d", got, test.want)
				}
			})
		}
	}

	t.Run("document not found", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		_, err := s.request("textDocument/hover", positionParams(0, 0))
		if got := errorCode(t, err); got != jsonrpc.InvalidParams {
			t.Errorf("error code = %d, want %d", got, jsonrpc.InvalidParams)
		}
	})
}

func TestResolveDoesNotChangeDiagnostics(t *testing.T) {
	s := newSession(t, emptyInitParams)
	s.open("local x = 1\nlocal y\n\nprint(x)")
	before := s.recorder.diagnostics(t, testURI)
	_, err := s.request("textDocument/hover", positionParams(2, 0))
	if got := errorCode(t, err); got != lsp.IdentifierNotFound {
		t.Fatalf("error code = %d, want %d", got, lsp.IdentifierNotFound)
	}
	after := s.recorder.diagnostics(t, testURI)
	if diff := luatest.ComputeDiff(before, after); diff != "" {
		t.Errorf("diagnostics changed after resolving a position:\n%s", diff)
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		settings map[string]any
		want     []protocol.Diagnostic
	}{
		{
			name: "no diagnostics",
			src:  "local x = 1\nprint(x)",
			want: []protocol.Diagnostic{},
		},
		{
			name: "syntax error",
			src:  "local x = ",
			want: []protocol.Diagnostic{{
				Range:    newRange(0, 10, 10),
				Severity: protocol.DiagnosticSeverityError,
				Source:   "syntax",
				Message:  "unexpected symbol near end of file",
			}},
		},
		{
			name: "warnings",
			src:  "local x = 1",
			want: []protocol.Diagnostic{{
				Range:    newRange(0, 6, 7),
				Severity: protocol.DiagnosticSeverityWarning,
				Source:   "unused",
				Message:  "unused local x",
			}},
		},
		{
			name:     "unused check disabled by settings",
			src:      "local x = 1",
			settings: map[string]any{"luals": map[string]any{"unused": false}},
			want:     []protocol.Diagnostic{},
		},
		{
			name:     "strict mode enabled by settings",
			src:      "print(y)",
			settings: map[string]any{"strict": true},
			want: []protocol.Diagnostic{{
				Range:    newRange(0, 6, 7),
				Severity: protocol.DiagnosticSeverityError,
				Source:   "undefined",
				Message:  "undefined global y",
			}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newSession(t, emptyInitParams)
			s.open(test.src)
			if test.settings != nil {
				s.notify("workspace/didChangeConfiguration", map[string]any{"settings": test.settings})
			}
			got := s.recorder.diagnostics(t, testURI)
			if diff := luatest.ComputeDiff(test.want, got); diff != "" {
				t.Errorf("incorrect diagnostics published:\n%s", diff)
			}
		})
	}
}

func TestDiagnosticsAreIdempotent(t *testing.T) {
	src := luatest.Dedent(t, `
		local a = 1
		local a = "x"
		local s = a .. nil
		print(#s)
	`)
	s := newSession(t, emptyInitParams)
	s.open(src)
	first := s.recorder.diagnostics(t, testURI)
	if len(first) == 0 {
		t.Fatalf("no diagnostics published for %q", src)
	}
	s.notify("textDocument/didSave", map[string]any{"textDocument": map[string]any{"uri": testURI}})
	second := s.recorder.diagnostics(t, testURI)
	if diff := luatest.ComputeDiff(first, second); diff != "" {
		t.Errorf("diagnostics differ after analysing unchanged document again:\n%s", diff)
	}
}

func TestAnalysisDefaults(t *testing.T) {
	s := newSession(t, emptyInitParams, lsp.WithAnalysisDefaults(config.Analysis{Unused: false}))
	s.open("local x = 1")
	if diff := luatest.ComputeDiff([]protocol.Diagnostic{}, s.recorder.diagnostics(t, testURI)); diff != "" {
		t.Errorf("incorrect diagnostics published:\n%s", diff)
	}

	initParams := map[string]any{"capabilities": map[string]any{}, "initializationOptions": map[string]any{"unused": true}}
	s = newSession(t, initParams, lsp.WithAnalysisDefaults(config.Analysis{Unused: false}))
	s.open("local x = 1")
	if got := len(s.recorder.diagnostics(t, testURI)); got != 1 {
		t.Errorf("%d diagnostics published, want 1", got)
	}
}

func TestDocumentSync(t *testing.T) {
	t.Run("full change replaces text", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		s.open("local x = 1\nprint(x)")
		s.notify("textDocument/didChange", map[string]any{
			"textDocument":   map[string]any{"uri": testURI, "version": 2},
			"contentChanges": []map[string]any{{"text": "local y = 1\nprint(y)"}},
		})
		result := s.mustRequest("textDocument/definition", positionParams(1, 6))
		want := &protocol.Location{URI: testURI, Range: newRange(0, 6, 7)}
		if diff := luatest.ComputeDiff(want, result); diff != "" {
			t.Errorf("definition returned incorrect location:\n%s", diff)
		}
	})

	t.Run("incremental change is rejected", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		s.open("local x = 1\nprint(x)")
		published := s.recorder.count("textDocument/publishDiagnostics")
		s.notify("textDocument/didChange", map[string]any{
			"textDocument": map[string]any{"uri": testURI, "version": 2},
			"contentChanges": []map[string]any{{
				"range": map[string]any{
					"start": map[string]any{"line": 0, "character": 6},
					"end":   map[string]any{"line": 0, "character": 7},
				},
				"text": "y",
			}},
		})
		if got := s.recorder.count("window/logMessage"); got != 1 {
			t.Errorf("%d log messages sent, want 1", got)
		}
		if got := s.recorder.count("textDocument/publishDiagnostics"); got != published {
			t.Errorf("diagnostics published after rejected change")
		}
		result := s.mustRequest("textDocument/hover", positionParams(1, 6))
		if got := result.(*protocol.Hover).Contents.Value; got != "x: number" {
			t.Errorf("hover after rejected change = %q, want %q", got, "x: number")
		}
	})

	t.Run("save with text replaces text", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		s.open("local x = 1")
		s.notify("textDocument/didSave", map[string]any{
			"textDocument": map[string]any{"uri": testURI},
			"text":         "local x = ",
		})
		got := s.recorder.diagnostics(t, testURI)
		if len(got) != 1 || got[0].Source != "syntax" {
			t.Errorf("diagnostics after save = %+v, want one syntax error", got)
		}
	})

	t.Run("close clears diagnostics", func(t *testing.T) {
		s := newSession(t, emptyInitParams)
		s.open("local x = 1")
		s.notify("textDocument/didClose", map[string]any{"textDocument": map[string]any{"uri": testURI}})
		if diff := luatest.ComputeDiff([]protocol.Diagnostic{}, s.recorder.diagnostics(t, testURI)); diff != "" {
			t.Errorf("incorrect diagnostics published on close:\n%s", diff)
		}
		_, err := s.request("textDocument/hover", positionParams(0, 6))
		if got := errorCode(t, err); got != jsonrpc.InvalidParams {
			t.Errorf("hover after close error code = %d, want %d", got, jsonrpc.InvalidParams)
		}
	})
}

func TestCompletionAndSignatureHelpStubs(t *testing.T) {
	s := newSession(t, emptyInitParams)
	s.open("local x = 1\nprint(x)")

	result := s.mustRequest("textDocument/completion", positionParams(1, 6))
	want := &protocol.CompletionList{Items: []protocol.CompletionItem{}}
	if diff := luatest.ComputeDiff(want, result); diff != "" {
		t.Errorf("completion returned incorrect result:\n%s", diff)
	}

	result = s.mustRequest("textDocument/signatureHelp", positionParams(1, 6))
	if help := result.(*protocol.SignatureHelp); help != nil {
		t.Errorf("signatureHelp returned %+v, want nil", help)
	}
}
