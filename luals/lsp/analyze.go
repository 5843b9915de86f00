package lsp

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/marcuscaisey/luals/lua"
	"github.com/marcuscaisey/luals/lua/analysis"
	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/parser"
	"github.com/marcuscaisey/luals/lua/token"
)

// syntaxSource is the source of diagnostics reporting parse errors.
const syntaxSource = "syntax"

// parseErrorRe matches the first line of a parse error: <line>:<column>: <message>.
var parseErrorRe = regexp.MustCompile(`^(\d+):(\d+): (.*)$`)

// typecheck parses and analyses the document with the given URI, publishes the diagnostics found, and returns the
// parsed chunk. nil is returned if the document isn't open, can't be parsed, or has error diagnostics.
func (h *Handler) typecheck(docURI protocol.DocumentURI) *ast.Chunk {
	doc, ok := h.docs[docURI]
	if !ok {
		return nil
	}
	doc.Chunk = nil

	filename := uriFilename(docURI)
	strict := h.settings.Bool(strictSetting, false)
	integer := h.settings.Bool(integerSetting, false)
	unused := h.settings.Bool(unusedSetting, true)

	chunk, err := parser.Parse(strings.NewReader(doc.Text), filename, parser.WithStrictMode(strict), parser.WithIntegerMode(integer))
	if err != nil {
		diag, ok := parseErrorDiagnostic(token.NewFile(filename, []byte(doc.Text)), err)
		if !ok {
			h.zap.Warn("Parse error has unexpected form, not publishing it", zap.String("uri", string(docURI)), zap.Error(err))
			return nil
		}
		h.publishDiagnostics(doc, []protocol.Diagnostic{diag})
		return nil
	}

	msgs := analysis.Check(chunk, analysis.WithStrictMode(strict), analysis.WithIntegerMode(integer), analysis.WithUnusedCheck(unused))
	diags := make([]protocol.Diagnostic, len(msgs))
	hasErrors := false
	for i, msg := range msgs {
		severity := tagSeverity(msg.Tag)
		if severity == protocol.DiagnosticSeverityError {
			hasErrors = true
		}
		diags[i] = protocol.Diagnostic{
			Range:    newRange(token.Range{StartPos: msg.Start, EndPos: msg.End}),
			Severity: severity,
			Source:   msg.Tag,
			Message:  msg.Msg,
		}
	}
	h.publishDiagnostics(doc, diags)

	if hasErrors {
		return nil
	}
	doc.Chunk = chunk
	return chunk
}

func tagSeverity(tag string) protocol.DiagnosticSeverity {
	if analysis.IsWarningTag(tag) {
		return protocol.DiagnosticSeverityWarning
	}
	return protocol.DiagnosticSeverityError
}

// parseErrorDiagnostic converts the first line of a parse error into a diagnostic. It reports whether the error has the
// expected form.
func parseErrorDiagnostic(file *token.File, err error) (protocol.Diagnostic, bool) {
	firstLine, _, _ := strings.Cut(err.Error(), "\n")
	match := parseErrorRe.FindStringSubmatch(firstLine)
	if match == nil {
		return protocol.Diagnostic{}, false
	}
	line, lineErr := strconv.Atoi(match[1])
	col, colErr := strconv.Atoi(match[2])
	if lineErr != nil || colErr != nil || line < 1 || col < 1 {
		return protocol.Diagnostic{}, false
	}

	start := token.Position{File: file, Line: line, Column: col - 1}
	end := start
	var luaErrs lua.Errors
	if errors.As(err, &luaErrs) && len(luaErrs) > 0 && luaErrs[0].Start.Compare(start) == 0 {
		end = token.Position{File: file, Line: luaErrs[0].End.Line, Column: luaErrs[0].End.Column}
	}

	return protocol.Diagnostic{
		Range:    newRange(token.Range{StartPos: start, EndPos: end}),
		Severity: protocol.DiagnosticSeverityError,
		Source:   syntaxSource,
		Message:  match[3],
	}, true
}

func (h *Handler) publishDiagnostics(doc *document, diags []protocol.Diagnostic) {
	doc.Diagnostics = diags
	err := h.client.TextDocumentPublishDiagnostics(&protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: diags,
	})
	if err != nil {
		h.zap.Error("Failed to publish diagnostics", zap.String("uri", string(doc.URI)), zap.Error(err))
	}
}
