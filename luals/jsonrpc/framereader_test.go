package jsonrpc_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/marcuscaisey/luals/luals/jsonrpc"
	"github.com/marcuscaisey/luals/test/luatest"
)

func frame(payload string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(payload), payload)
}

func toStrings(payloads [][]byte) []string {
	var strs []string
	for _, p := range payloads {
		strs = append(strs, string(p))
	}
	return strs
}

func TestFrameReaderFeed(t *testing.T) {
	tests := []struct {
		name      string
		chunks    []string
		want      []string
		wantErr   bool
		wantAfter int
	}{
		{
			name:   "single message",
			chunks: []string{frame(`{"a":1}`)},
			want:   []string{`{"a":1}`},
		},
		{
			name:   "multiple messages in one chunk",
			chunks: []string{frame(`{"a":1}`) + frame(`{"b":2}`) + frame(`[]`)},
			want:   []string{`{"a":1}`, `{"b":2}`, `[]`},
		},
		{
			name:   "header split across chunks",
			chunks: []string{"Content-Len", "gth: 2\r", "\n\r\n{}"},
			want:   []string{`{}`},
		},
		{
			name:      "incomplete body stays buffered",
			chunks:    []string{"Content-Length: 10\r\n\r\n{\"a\":"},
			wantAfter: len(`{"a":`),
		},
		{
			name:   "lower case header name",
			chunks: []string{"content-length: 2\r\n\r\n{}"},
			want:   []string{`{}`},
		},
		{
			name:   "extra headers are ignored",
			chunks: []string{"Content-Type: application/vscode-jsonrpc; charset=utf-8\r\nContent-Length: 2\r\n\r\n{}"},
			want:   []string{`{}`},
		},
		{
			name:   "zero length body",
			chunks: []string{"Content-Length: 0\r\n\r\n"},
			want:   []string{``},
		},
		{
			name:    "missing content length",
			chunks:  []string{"Content-Type: text/plain\r\n\r\n" + frame(`{}`)},
			want:    []string{`{}`},
			wantErr: true,
		},
		{
			name:    "non-numeric content length",
			chunks:  []string{"Content-Length: abc\r\n\r\n" + frame(`{}`)},
			want:    []string{`{}`},
			wantErr: true,
		},
		{
			name:    "negative content length",
			chunks:  []string{"Content-Length: -1\r\n\r\n" + frame(`{}`)},
			want:    []string{`{}`},
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := jsonrpc.NewFrameReader()
			var got []string
			var gotErr error
			for _, chunk := range test.chunks {
				payloads, err := r.Feed([]byte(chunk))
				got = append(got, toStrings(payloads)...)
				gotErr = errors.Join(gotErr, err)
			}

			if diff := luatest.ComputeDiff(test.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Feed returned incorrect payloads:\n%s", diff)
			}
			var framingErr *jsonrpc.FramingError
			if gotIsFramingErr := errors.As(gotErr, &framingErr); gotIsFramingErr != test.wantErr {
				t.Errorf("Feed returned error %v, want framing error: %t", gotErr, test.wantErr)
			}
			if got := r.Buffered(); got != test.wantAfter {
				t.Errorf("Buffered() = %d, want %d", got, test.wantAfter)
			}
		})
	}
}

func TestFrameReaderFeedIsIndependentOfChunking(t *testing.T) {
	want := []string{`{"jsonrpc":"2.0","method":"a"}`, `{"jsonrpc":"2.0","id":1,"method":"b","params":{"x":"é"}}`}
	stream := frame(want[0]) + frame(want[1])

	for i := 0; i <= len(stream); i++ {
		r := jsonrpc.NewFrameReader()
		var got []string
		for _, chunk := range []string{stream[:i], stream[i:]} {
			payloads, err := r.Feed([]byte(chunk))
			if err != nil {
				t.Fatalf("split at %d: Feed returned error: %s", i, err)
			}
			got = append(got, toStrings(payloads)...)
		}
		if diff := luatest.ComputeDiff(want, got); diff != "" {
			t.Errorf("split at %d: Feed returned incorrect payloads:\n%s", i, diff)
		}
	}

	r := jsonrpc.NewFrameReader()
	var got []string
	for i := range len(stream) {
		payloads, err := r.Feed([]byte{stream[i]})
		if err != nil {
			t.Fatalf("byte at a time: Feed returned error: %s", err)
		}
		got = append(got, toStrings(payloads)...)
	}
	if diff := luatest.ComputeDiff(want, got); diff != "" {
		t.Errorf("byte at a time: Feed returned incorrect payloads:\n%s", diff)
	}
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := jsonrpc.WriteFrame(&buf, []byte(`{"x":"é"}`)); err != nil {
		t.Fatalf("WriteFrame returned error: %s", err)
	}
	want := "Content-Length: 10\r\n\r\n{\"x\":\"é\"}"
	if got := buf.String(); got != want {
		t.Errorf("WriteFrame wrote %q, want %q", got, want)
	}
}
