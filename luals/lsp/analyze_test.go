package lsp

import (
	"errors"
	"testing"

	"go.lsp.dev/protocol"

	"github.com/marcuscaisey/luals/lua"
	"github.com/marcuscaisey/luals/lua/token"
	"github.com/marcuscaisey/luals/test/luatest"
)

func TestParseErrorDiagnostic(t *testing.T) {
	file := token.NewFile("test.lua", []byte("a\nbcdef\n"))

	tests := []struct {
		name   string
		err    error
		want   protocol.Diagnostic
		wantOK bool
	}{
		{
			name:   "no position",
			err:    errors.New("garbage"),
			wantOK: false,
		},
		{
			name:   "zero line",
			err:    errors.New("0:3: unexpected symbol"),
			wantOK: false,
		},
		{
			name: "position only",
			err:  errors.New("2:3: unexpected symbol\nsecond error"),
			want: protocol.Diagnostic{
				Range: protocol.Range{
					Start: protocol.Position{Line: 1, Character: 2},
					End:   protocol.Position{Line: 1, Character: 2},
				},
				Severity: protocol.DiagnosticSeverityError,
				Source:   syntaxSource,
				Message:  "unexpected symbol",
			},
			wantOK: true,
		},
		{
			name: "range taken from first error",
			err: lua.Errors{{
				Msg:   "unfinished string",
				Start: token.Position{File: file, Line: 2, Column: 2},
				End:   token.Position{File: file, Line: 2, Column: 5},
			}},
			want: protocol.Diagnostic{
				Range: protocol.Range{
					Start: protocol.Position{Line: 1, Character: 2},
					End:   protocol.Position{Line: 1, Character: 5},
				},
				Severity: protocol.DiagnosticSeverityError,
				Source:   syntaxSource,
				Message:  "unfinished string",
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseErrorDiagnostic(file, tt.err)
			if ok != tt.wantOK {
				t.Fatalf("parseErrorDiagnostic(%q) ok = %t, want %t", tt.err, ok, tt.wantOK)
			}
			if diff := luatest.ComputeDiff(tt.want, got); diff != "" {
				t.Errorf("parseErrorDiagnostic(%q) returned incorrect diagnostic:\n%s", tt.err, diff)
			}
		})
	}
}
