package native

import (
	"errors"
	"testing"
)

func TestExtensionLoader(t *testing.T) {
	var got string
	byExt := LoaderFunc(func(path string) (Engine, error) {
		got = "ext:" + path
		return &fakeEngine{}, nil
	})
	fallback := LoaderFunc(func(path string) (Engine, error) {
		got = "fallback:" + path
		return &fakeEngine{}, nil
	})
	l := &ExtensionLoader{
		ByExtension: map[string]Loader{".wasm": byExt},
		Fallback:    fallback,
	}

	tests := []struct {
		path string
		want string
	}{
		{"core.wasm", "ext:core.wasm"},
		{"CORE.WASM", "ext:CORE.WASM"},
		{`C:\iis\hwebcore.dll`, `fallback:C:\iis\hwebcore.dll`},
		{"noext", "fallback:noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if _, err := l.Load(tt.path); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtensionLoader_NoFallback(t *testing.T) {
	l := &ExtensionLoader{}
	_, err := l.Load("hwebcore.dll")

	var nerr *Error
	if !errors.As(err, &nerr) || nerr.Class != ClassRuntime {
		t.Fatalf("expected runtime *Error, got %v", err)
	}
}

func TestDefaultLoader(t *testing.T) {
	l, ok := DefaultLoader().(*ExtensionLoader)
	if !ok {
		t.Fatalf("expected *ExtensionLoader")
	}
	if _, ok := l.ByExtension[".wasm"].(*WasmLoader); !ok {
		t.Error(".wasm should be handled by WasmLoader")
	}
	if l.Fallback == nil {
		t.Error("fallback loader should be set")
	}
}
