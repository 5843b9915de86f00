package token_test

import (
	"fmt"
	"testing"

	"github.com/marcuscaisey/luals/lua/token"
)

func TestTypeFormat(t *testing.T) {
	tests := []struct {
		format string
		typ    token.Type
		want   string
	}{
		{format: "%s", typ: token.EqualEqual, want: "EqualEqual"},
		{format: "%v", typ: token.Function, want: "Function"},
		{format: "%m", typ: token.EqualEqual, want: "'=='"},
		{format: "%m", typ: token.Function, want: "'function'"},
		{format: "%m", typ: token.Ident, want: "'identifier'"},
		{format: "%d", typ: token.EOF, want: "1"},
		{format: "%s", typ: token.Type(-1), want: "Type(-1)"},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s %d", tc.format, int(tc.typ)), func(t *testing.T) {
			got := fmt.Sprintf(tc.format, tc.typ)
			if got != tc.want {
				t.Errorf("fmt.Sprintf(%q, %d) = %q, want %q", tc.format, int(tc.typ), got, tc.want)
			}
		})
	}
}

func TestIdentType(t *testing.T) {
	for _, ident := range []string{"and", "function", "while"} {
		if typ := token.IdentType(ident); !typ.IsKeyword() {
			t.Errorf("IdentType(%q) = %s, want a keyword", ident, typ)
		}
	}
	if typ := token.IdentType("foo"); typ != token.Ident {
		t.Errorf("IdentType(%q) = %s, want %s", "foo", typ, token.Ident)
	}
}
