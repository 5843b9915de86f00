package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcuscaisey/luals/luals/config"
	"github.com/marcuscaisey/luals/test/luatest"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    config.Config
		wantErr bool
	}{
		{
			name: "empty",
			data: "",
			want: config.Default(),
		},
		{
			name: "partial analysis section keeps defaults",
			data: "[analysis]\nstrict = true\n",
			want: config.Config{
				Analysis: config.Analysis{Strict: true, Unused: true},
				Log:      config.Log{Level: "info"},
			},
		},
		{
			name: "all keys",
			data: "[analysis]\nstrict = true\ninteger = true\nunused = false\n[log]\nlevel = \"debug\"\n",
			want: config.Config{
				Analysis: config.Analysis{Strict: true, Integer: true},
				Log:      config.Log{Level: "debug"},
			},
		},
		{
			name:    "unknown key",
			data:    "[analysis]\nstrct = true\n",
			wantErr: true,
		},
		{
			name:    "invalid log level",
			data:    "[log]\nlevel = \"loud\"\n",
			wantErr: true,
		},
		{
			name:    "wrong type",
			data:    "[analysis]\nstrict = \"yes\"\n",
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := config.Parse(test.data)
			if test.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) returned no error, want one", test.data)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %s", test.data, err)
			}
			if diff := luatest.ComputeDiff(test.want, got); diff != "" {
				t.Errorf("Parse(%q) returned incorrect config:\n%s", test.data, diff)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	got, err := config.Load("")
	if err != nil {
		t.Fatalf(`Load("") returned error: %s`, err)
	}
	if diff := luatest.ComputeDiff(config.Default(), got); diff != "" {
		t.Errorf(`Load("") returned incorrect config:\n%s`, diff)
	}

	path := filepath.Join(t.TempDir(), "luals.toml")
	if err := os.WriteFile(path, []byte("[analysis]\ninteger = true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %s", path, err)
	}
	want := config.Config{Analysis: config.Analysis{Integer: true, Unused: true}, Log: config.Log{Level: "info"}}
	if diff := luatest.ComputeDiff(want, got); diff != "" {
		t.Errorf("Load(%q) returned incorrect config:\n%s", path, diff)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("Load of missing file returned no error, want one")
	}
}
