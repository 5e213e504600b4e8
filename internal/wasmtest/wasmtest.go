// Package wasmtest assembles minimal web core modules in memory for tests.
//
// The generated module exports the ABI expected by native.WasmLoader:
//
//	memory
//	cabi_realloc(old_ptr, old_size, align, new_size i32) i32   bump allocator from 1024
//	WebCoreActivate(host_ptr, host_len, root_ptr, root_len, name_ptr, name_len i32) i32
//	WebCoreShutdown(immediate i32) i32
package wasmtest

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	valI32 = 0x7f
	funcTy = 0x60

	secType     = 1
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10

	exportFunc   = 0x00
	exportMemory = 0x02

	opEnd       = 0x0b
	opLocalGet  = 0x20
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Const  = 0x41
	opI32Add    = 0x6a
)

// Options selects the behaviour of the generated module.
type Options struct {
	// ActivateResult is returned by WebCoreActivate. Negative values are
	// failure HRESULTs.
	ActivateResult int32
	// ShutdownResult is returned by WebCoreShutdown.
	ShutdownResult int32
	// OmitShutdown drops the WebCoreShutdown export.
	OmitShutdown bool
}

// WebCore returns a valid module binary built from opts.
func WebCore(opts Options) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	i32s := func(n int) []byte {
		b := uleb(uint32(n))
		for i := 0; i < n; i++ {
			b = append(b, valI32)
		}
		return b
	}
	funcType := func(params, results int) []byte {
		return cat([]byte{funcTy}, i32s(params), i32s(results))
	}

	// types: 0 activate, 1 shutdown, 2 cabi_realloc
	out = append(out, section(secType, vec(
		funcType(6, 1),
		funcType(1, 1),
		funcType(4, 1),
	))...)

	funcs := [][]byte{{0}, {1}, {2}}
	out = append(out, section(secFunction, vec(funcs...))...)

	// one memory, min 1 page, no max
	out = append(out, section(secMemory, vec([]byte{0x00, 0x01}))...)

	// mutable i32 heap pointer starting at 1024
	out = append(out, section(secGlobal, vec(
		cat([]byte{valI32, 0x01, opI32Const}, sleb(1024), []byte{opEnd}),
	))...)

	exports := [][]byte{
		cat(name("memory"), []byte{exportMemory, 0}),
		cat(name("WebCoreActivate"), []byte{exportFunc, 0}),
		cat(name("cabi_realloc"), []byte{exportFunc, 2}),
	}
	if !opts.OmitShutdown {
		exports = append(exports, cat(name("WebCoreShutdown"), []byte{exportFunc, 1}))
	}
	out = append(out, section(secExport, vec(exports...))...)

	activate := cat([]byte{opI32Const}, sleb(opts.ActivateResult), []byte{opEnd})
	shutdown := cat([]byte{opI32Const}, sleb(opts.ShutdownResult), []byte{opEnd})
	realloc := []byte{
		opGlobalGet, 0,
		opGlobalGet, 0,
		opLocalGet, 3,
		opI32Add,
		opGlobalSet, 0,
		opEnd,
	}
	out = append(out, section(secCode, vec(body(activate), body(shutdown), body(realloc)))...)

	return out
}

// Invalid returns bytes that are not a WebAssembly module.
func Invalid() []byte {
	return []byte("this is not a web core")
}

func body(code []byte) []byte {
	fn := cat([]byte{0x00}, code) // no locals
	return cat(uleb(uint32(len(fn))), fn)
}

func section(id byte, payload []byte) []byte {
	return cat([]byte{id}, uleb(uint32(len(payload))), payload)
}

func vec(items ...[]byte) []byte {
	return cat(append([][]byte{uleb(uint32(len(items)))}, items...)...)
}

func name(s string) []byte {
	return cat(uleb(uint32(len(s))), []byte(s))
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}

// WriteFile writes the module built from opts into a temporary directory
// and returns its path.
func WriteFile(tb testing.TB, opts Options) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "hwebcore.wasm")
	if err := os.WriteFile(path, WebCore(opts), 0o644); err != nil {
		tb.Fatalf("write web core module: %v", err)
	}
	return path
}
