package wasmtest

import (
	"bytes"
	"testing"
)

func TestLEB128(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"uleb 0", uleb(0), []byte{0x00}},
		{"uleb 127", uleb(127), []byte{0x7f}},
		{"uleb 128", uleb(128), []byte{0x80, 0x01}},
		{"uleb 624485", uleb(624485), []byte{0xe5, 0x8e, 0x26}},
		{"sleb 0", sleb(0), []byte{0x00}},
		{"sleb -1", sleb(-1), []byte{0x7f}},
		{"sleb 63", sleb(63), []byte{0x3f}},
		{"sleb 64", sleb(64), []byte{0xc0, 0x00}},
		{"sleb -64", sleb(-64), []byte{0x40}},
		{"sleb 1024", sleb(1024), []byte{0x80, 0x08}},
		{"sleb -123456", sleb(-123456), []byte{0xc0, 0xbb, 0x78}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("got % x, want % x", tt.got, tt.want)
			}
		})
	}
}

func TestWebCore_Header(t *testing.T) {
	bin := WebCore(Options{})
	if !bytes.HasPrefix(bin, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}) {
		t.Fatalf("missing wasm header: % x", bin[:8])
	}
	if !bytes.Contains(bin, []byte("WebCoreActivate")) || !bytes.Contains(bin, []byte("WebCoreShutdown")) {
		t.Error("expected both entry points to be exported")
	}
}

func TestWebCore_OmitShutdown(t *testing.T) {
	bin := WebCore(Options{OmitShutdown: true})
	if bytes.Contains(bin, []byte("WebCoreShutdown")) {
		t.Error("WebCoreShutdown should not be exported")
	}
}
