package analysis_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/marcuscaisey/luals/lua/analysis"
	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/parser"
	"github.com/marcuscaisey/luals/test/luatest"
)

func mustParse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	chunk, err := parser.Parse(strings.NewReader(src), "test.lua")
	if err != nil {
		t.Fatalf("Parse(%q) returned error:\n%s", src, err)
	}
	return chunk
}

func formatMessages(msgs []analysis.Message) []string {
	var lines []string
	for _, msg := range msgs {
		lines = append(lines, fmt.Sprintf("%d:%d: %s: %s", msg.Start.Line, msg.Start.Column+1, msg.Tag, msg.Msg))
	}
	return lines
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []analysis.Option
		want []string
	}{
		{
			name: "used local",
			src:  "local x = 1\nprint(x)",
			opts: []analysis.Option{analysis.WithUnusedCheck(true)},
		},
		{
			name: "unused local",
			src:  "local x = 1",
			opts: []analysis.Option{analysis.WithUnusedCheck(true)},
			want: []string{"1:7: unused: unused local x"},
		},
		{
			name: "unused check disabled",
			src:  "local x = 1",
		},
		{
			name: "unused local with placeholder prefix",
			src:  "local _x = 1",
			opts: []analysis.Option{analysis.WithUnusedCheck(true)},
		},
		{
			name: "unused parameter",
			src:  "local function f(a) end\nf()",
			opts: []analysis.Option{analysis.WithUnusedCheck(true)},
		},
		{
			name: "masked local",
			src:  "local x = 1\ndo\n  local x = 2\n  print(x)\nend\nprint(x)",
			want: []string{"3:9: mask: local x masks earlier declaration on line 1"},
		},
		{
			name: "local without value in strict mode",
			src:  "local x\nprint(x)",
			opts: []analysis.Option{analysis.WithStrictMode(true)},
			want: []string{"1:7: any: local x is declared without a value and has type any"},
		},
		{
			name: "local without value",
			src:  "local x\nprint(x)",
		},
		{
			name: "undefined global in strict mode",
			src:  "print(y)",
			opts: []analysis.Option{analysis.WithStrictMode(true)},
			want: []string{"1:7: undefined: undefined global y"},
		},
		{
			name: "assigned global in strict mode",
			src:  "y = 1\nprint(y)",
			opts: []analysis.Option{analysis.WithStrictMode(true)},
		},
		{
			name: "undefined global",
			src:  "print(y)",
		},
		{
			name: "arithmetic on boolean",
			src:  "local s = true\nprint(s + 1)",
			want: []string{"2:7: type: attempt to perform arithmetic on a boolean value (local s)"},
		},
		{
			name: "concatenation of nil",
			src:  `print("a" .. nil)`,
			want: []string{"1:14: type: attempt to concatenate a nil value"},
		},
		{
			name: "length of number",
			src:  "local n = 1\nprint(#n)",
			want: []string{"2:8: type: attempt to get length of a number value (local n)"},
		},
		{
			name: "call of number",
			src:  "local n = 1\nn()",
			want: []string{"2:1: call: attempt to call a number value (local n)"},
		},
		{
			name: "assignment of different type in strict mode",
			src:  "local n = 1\nn = \"a\"\nprint(n)",
			opts: []analysis.Option{analysis.WithStrictMode(true)},
			want: []string{"2:1: type: cannot assign string to local n of type number"},
		},
		{
			name: "assignment of different type",
			src:  "local n = 1\nn = \"a\"\nprint(n)",
		},
		{
			name: "local is not visible in its own initialiser",
			src:  "local x = 1\nlocal x = x + 1\nprint(x)",
			opts: []analysis.Option{analysis.WithUnusedCheck(true)},
			want: []string{"2:7: mask: local x masks earlier declaration on line 1"},
		},
		{
			name: "messages sorted by position",
			src:  "local a = 1\nlocal b = true\nprint(b .. a)\nlocal a = 2",
			opts: []analysis.Option{analysis.WithUnusedCheck(true)},
			want: []string{
				"3:7: type: attempt to concatenate a boolean value (local b)",
				"4:7: mask: local a masks earlier declaration on line 1",
				"4:7: unused: unused local a",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := mustParse(t, tt.src)
			got := formatMessages(analysis.Check(chunk, tt.opts...))
			if diff := luatest.ComputeDiff(tt.want, got); diff != "" {
				t.Errorf("Check(%q) returned incorrect messages:\n%s", tt.src, diff)
			}
		})
	}
}

func TestCheckIsDeterministic(t *testing.T) {
	src := "local a = 1\nlocal b = true\nprint(b .. a)\nlocal a = 2\nprint(c + d)"
	opts := []analysis.Option{analysis.WithUnusedCheck(true), analysis.WithStrictMode(true)}
	first := formatMessages(analysis.Check(mustParse(t, src), opts...))
	for range 5 {
		got := formatMessages(analysis.Check(mustParse(t, src), opts...))
		if diff := luatest.ComputeDiff(first, got); diff != "" {
			t.Fatalf("Check returned different messages for the same source:\n%s", diff)
		}
	}
}

func TestCheckScopes(t *testing.T) {
	src := "local x = 1\ndo\n  local x = 2\n  print(x)\nend\nprint(x)"
	chunk := mustParse(t, src)
	analysis.Check(chunk)

	var got []string
	for ident := range ast.Idents(chunk) {
		got = append(got, fmt.Sprintf("%s@%d", ident.Name(), ident.Scope))
	}
	want := []string{"x@2", "x@3", "print@1", "x@3", "print@1", "x@2"}
	if diff := luatest.ComputeDiff(want, got); diff != "" {
		t.Errorf("incorrect scopes assigned to identifiers:\n%s", diff)
	}
}

func TestCheckTypes(t *testing.T) {
	src := luatest.Dedent(t, `
		local n = 1
		local s = "a" .. n
		local function f(a, b) return a end
		local t = {}
		local c = n < 2`)
	chunk := mustParse(t, src)
	analysis.Check(chunk)

	var got []string
	for ident := range ast.Idents(chunk) {
		got = append(got, ident.Name()+": "+ident.Type)
	}
	want := []string{
		"n: number",
		"s: string",
		"n: number",
		"f: function(a, b)",
		"a: any",
		"b: any",
		"a: any",
		"t: table",
		"c: boolean",
		"n: number",
	}
	if diff := luatest.ComputeDiff(want, got); diff != "" {
		t.Errorf("incorrect types assigned to identifiers:\n%s", diff)
	}
}

func TestCheckIntegerMode(t *testing.T) {
	chunk := mustParse(t, "local n = 1 + 2")
	analysis.Check(chunk, analysis.WithIntegerMode(true))
	for ident := range ast.Idents(chunk) {
		if ident.Type != "integer" {
			t.Errorf("type of %s = %q, want %q", ident.Name(), ident.Type, "integer")
		}
	}
}
