package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/marcuscaisey/luals/luals/config"
)

func TestCheck(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name     string
		src      string
		cfg      config.Analysis
		wantOK   bool
		wantLine string
	}{
		{
			name:   "clean",
			src:    "local x = 1\nprint(x)\n",
			cfg:    config.Default().Analysis,
			wantOK: true,
		},
		{
			name:     "warning only",
			src:      "local x = 1\n",
			cfg:      config.Default().Analysis,
			wantOK:   true,
			wantLine: "1:7: warning: unused local x [unused]",
		},
		{
			name:     "syntax error",
			src:      "local x =",
			cfg:      config.Default().Analysis,
			wantOK:   false,
			wantLine: "error:",
		},
		{
			name:     "undefined global in strict mode",
			src:      "print(y)\n",
			cfg:      config.Analysis{Strict: true},
			wantOK:   false,
			wantLine: "error: undefined global y [undefined]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b strings.Builder
			ok := check(&b, []byte(tc.src), "test.lua", tc.cfg)
			if ok != tc.wantOK {
				t.Errorf("check() = %t, want %t\noutput:\n%s", ok, tc.wantOK, b.String())
			}
			if tc.wantLine == "" {
				if b.Len() != 0 {
					t.Errorf("check() printed unexpected output:\n%s", b.String())
				}
				return
			}
			if !strings.Contains(b.String(), tc.wantLine) {
				t.Errorf("check() output does not contain %q:\n%s", tc.wantLine, b.String())
			}
		})
	}
}

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition("3", "5")
	if err != nil {
		t.Fatalf("parsePosition() returned error: %s", err)
	}
	if pos.Line != 2 || pos.Character != 4 {
		t.Errorf("parsePosition() = %d:%d, want 2:4", pos.Line, pos.Character)
	}

	for _, args := range [][2]string{{"0", "1"}, {"1", "0"}, {"x", "1"}, {"1", "-2"}} {
		if _, err := parsePosition(args[0], args[1]); err == nil {
			t.Errorf("parsePosition(%q, %q) returned no error", args[0], args[1])
		}
	}
}
