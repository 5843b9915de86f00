package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/marcuscaisey/luals/lua/analysis"
	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/parser"
	"github.com/marcuscaisey/luals/luals/lsp"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Query a Lua file interactively",
	Long: `Open a Lua file in a language server session and query it from a prompt.

Commands (lines and columns are 1-based):
  hover <line> <col>
  def <line> <col>
  refs <line> <col>
  rename <line> <col> <name>
  diag
  ast`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	errorColour = color.New(color.FgRed).SprintFunc()
	posColour   = color.New(color.FgYellow).SprintFunc()
)

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	filename, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", args[0], err)
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	client := &inspectClient{out: out}
	handler := lsp.NewHandler(client, lsp.WithLogger(logger), lsp.WithAnalysisDefaults(cfg.Analysis))
	in := &inspector{
		handler:  handler,
		client:   client,
		out:      out,
		uri:      protocol.DocumentURI(uri.File(filename)),
		filename: filename,
		src:      src,
		strict:   cfg.Analysis.Strict,
		integer:  cfg.Analysis.Integer,
	}
	if err := in.open(); err != nil {
		return fmt.Errorf("inspecting %s: %w", args[0], err)
	}

	rlCfg := &readline.Config{
		Prompt: "luals> ",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("hover"),
			readline.PcItem("def"),
			readline.PcItem("refs"),
			readline.PcItem("rename"),
			readline.PcItem("diag"),
			readline.PcItem("ast"),
		),
	}
	homeDir, err := os.UserHomeDir()
	if err == nil {
		rlCfg.HistoryFile = path.Join(homeDir, ".luals_history")
	} else {
		fmt.Fprintf(os.Stderr, "Can't get current user's home directory (%s). Command history will not be saved.\n", err)
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", args[0], err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("inspecting %s: %w", args[0], err)
		}
		if err := in.run(strings.Fields(line)); err != nil {
			fmt.Fprintln(out, errorColour(err))
		}
	}
}

// inspectClient receives the notifications sent by the handler.
type inspectClient struct {
	out         io.Writer
	diagnostics []protocol.Diagnostic
}

func (c *inspectClient) Notify(method string, params any) error {
	switch params := params.(type) {
	case *protocol.PublishDiagnosticsParams:
		c.diagnostics = params.Diagnostics
	case *protocol.LogMessageParams:
		fmt.Fprintf(c.out, "%s: %s\n", method, params.Message)
	}
	return nil
}

type inspector struct {
	handler  *lsp.Handler
	client   *inspectClient
	out      io.Writer
	uri      protocol.DocumentURI
	filename string
	src      []byte
	strict   bool
	integer  bool
}

func (in *inspector) open() error {
	initParams := &protocol.InitializeParams{
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Hover: &protocol.HoverTextDocumentClientCapabilities{ContentFormat: []protocol.MarkupKind{protocol.PlainText}},
			},
		},
	}
	if _, err := in.request("initialize", initParams); err != nil {
		return err
	}
	if err := in.notify("initialized", &protocol.InitializedParams{}); err != nil {
		return err
	}
	return in.notify("textDocument/didOpen", &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        in.uri,
			LanguageID: "lua",
			Version:    1,
			Text:       string(in.src),
		},
	})
}

func (in *inspector) request(method string, params any) (any, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return in.handler.HandleRequest(method, raw)
}

func (in *inspector) notify(method string, params any) error {
	raw, err := marshalParams(params)
	if err != nil {
		return err
	}
	return in.handler.HandleNotification(method, raw)
}

func marshalParams(params any) (*json.RawMessage, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshalling params: %w", err)
	}
	raw := json.RawMessage(data)
	return &raw, nil
}

func (in *inspector) run(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	command, args := fields[0], fields[1:]
	switch command {
	case "diag":
		in.printDiagnostics()
		return nil
	case "ast":
		return in.printAST()
	case "hover", "def", "refs", "rename":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	wantArgs := 2
	if command == "rename" {
		wantArgs = 3
	}
	if len(args) != wantArgs {
		return fmt.Errorf("%s takes %d arguments, got %d", command, wantArgs, len(args))
	}
	pos, err := parsePosition(args[0], args[1])
	if err != nil {
		return err
	}
	positionParams := protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: in.uri},
		Position:     pos,
	}

	switch command {
	case "hover":
		result, err := in.request("textDocument/hover", &protocol.HoverParams{TextDocumentPositionParams: positionParams})
		if err != nil {
			return err
		}
		hover := result.(*protocol.Hover)
		fmt.Fprintf(in.out, "%s %s\n", formatRange(*hover.Range), hover.Contents.Value)
	case "def":
		result, err := in.request("textDocument/definition", &protocol.DefinitionParams{TextDocumentPositionParams: positionParams})
		if err != nil {
			return err
		}
		fmt.Fprintln(in.out, formatRange(result.(*protocol.Location).Range))
	case "refs":
		result, err := in.request("textDocument/references", &protocol.ReferenceParams{TextDocumentPositionParams: positionParams})
		if err != nil {
			return err
		}
		for _, location := range result.([]protocol.Location) {
			fmt.Fprintln(in.out, formatRange(location.Range))
		}
	case "rename":
		result, err := in.request("textDocument/rename", &protocol.RenameParams{TextDocumentPositionParams: positionParams, NewName: args[2]})
		if err != nil {
			return err
		}
		for _, edit := range result.(*protocol.WorkspaceEdit).Changes[in.uri] {
			fmt.Fprintf(in.out, "%s -> %s\n", formatRange(edit.Range), edit.NewText)
		}
	}
	return nil
}

func (in *inspector) printDiagnostics() {
	if len(in.client.diagnostics) == 0 {
		fmt.Fprintln(in.out, "no diagnostics")
		return
	}
	for _, diag := range in.client.diagnostics {
		severity := "warning"
		if diag.Severity == protocol.DiagnosticSeverityError {
			severity = errorColour("error")
		}
		fmt.Fprintf(in.out, "%s %s: %s [%s]\n", formatRange(diag.Range), severity, diag.Message, diag.Source)
	}
}

func (in *inspector) printAST() error {
	chunk, err := parser.Parse(strings.NewReader(string(in.src)), in.filename, parser.WithStrictMode(in.strict), parser.WithIntegerMode(in.integer))
	if err != nil {
		return err
	}
	analysis.Check(chunk, analysis.WithStrictMode(in.strict), analysis.WithIntegerMode(in.integer))
	fmt.Fprintln(in.out, ast.Sprint(chunk))
	return nil
}

// parsePosition parses a 1-based line and column into a zero-based protocol position.
func parsePosition(lineStr, colStr string) (protocol.Position, error) {
	line, err := strconv.ParseUint(lineStr, 10, 32)
	if err != nil || line == 0 {
		return protocol.Position{}, fmt.Errorf("invalid line %q", lineStr)
	}
	col, err := strconv.ParseUint(colStr, 10, 32)
	if err != nil || col == 0 {
		return protocol.Position{}, fmt.Errorf("invalid column %q", colStr)
	}
	return protocol.Position{Line: uint32(line - 1), Character: uint32(col - 1)}, nil
}

func formatRange(rang protocol.Range) string {
	return posColour(fmt.Sprintf("%d:%d-%d:%d", rang.Start.Line+1, rang.Start.Character+1, rang.End.Line+1, rang.End.Character+1))
}
