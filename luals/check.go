package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcuscaisey/luals/lua"
	"github.com/marcuscaisey/luals/lua/analysis"
	"github.com/marcuscaisey/luals/lua/parser"
	"github.com/marcuscaisey/luals/luals/config"
)

// errFoundErrors is returned by the check command when it reports an error. The errors have already been printed.
var errFoundErrors = errors.New("errors found")

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report the diagnostics of Lua files",
	Long: `Parse and analyse each file and print its diagnostics to stderr.
If no paths are given, the source is read from stdin.
The exit code is 1 if any error is reported.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	out := cmd.ErrOrStderr()
	if len(args) == 0 {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		if !check(out, src, "stdin", cfg.Analysis) {
			return errFoundErrors
		}
		return nil
	}

	ok := true
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("checking %s: %w", path, err)
		}
		if !check(out, src, path, cfg.Analysis) {
			ok = false
		}
	}
	if !ok {
		return errFoundErrors
	}
	return nil
}

// check prints the diagnostics of src to w and reports whether it's free of errors.
func check(w io.Writer, src []byte, filename string, cfg config.Analysis) bool {
	chunk, err := parser.Parse(bytes.NewReader(src), filename, parser.WithStrictMode(cfg.Strict), parser.WithIntegerMode(cfg.Integer))
	if err != nil {
		var luaErrs lua.Errors
		if !errors.As(err, &luaErrs) {
			fmt.Fprintln(w, err)
			return false
		}
		for _, e := range luaErrs {
			fmt.Fprintln(w, e.Highlight("error"))
		}
		return false
	}

	ok := true
	msgs := analysis.Check(chunk, analysis.WithStrictMode(cfg.Strict), analysis.WithIntegerMode(cfg.Integer), analysis.WithUnusedCheck(cfg.Unused))
	for _, msg := range msgs {
		severity := "warning"
		if !analysis.IsWarningTag(msg.Tag) {
			severity = "error"
			ok = false
		}
		e := &lua.Error{Msg: fmt.Sprintf("%s [%s]", msg.Msg, msg.Tag), Start: msg.Start, End: msg.End}
		fmt.Fprintln(w, e.Highlight(severity))
	}
	return ok
}
