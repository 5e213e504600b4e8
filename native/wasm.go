package native

import (
	"context"
	"io"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// CabiRealloc is the allocator export used to pass strings into the guest.
const CabiRealloc = "cabi_realloc"

// WasmLoader loads web cores compiled to WebAssembly. Each Load gets its own
// wazero runtime.
type WasmLoader struct {
	// MemoryLimitPages caps guest memory (64KiB pages). Zero keeps the
	// wazero default.
	MemoryLimitPages uint32
	// Stdout and Stderr receive the guest's WASI output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	// FSRoot, when set, is mounted as the guest's "/".
	FSRoot string
}

func (l *WasmLoader) Load(libraryPath string) (Engine, error) {
	wasmBytes, err := os.ReadFile(libraryPath)
	if err != nil {
		return nil, runtimeErrorf(err, "load web core library %s: %v", libraryPath, err)
	}
	return l.load(context.Background(), libraryPath, wasmBytes)
}

func (l *WasmLoader) load(ctx context.Context, libraryPath string, wasmBytes []byte) (Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if l.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(l.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	fail := func(err error, format string, args ...any) (Engine, error) {
		_ = rt.Close(ctx)
		return nil, runtimeErrorf(err, format, args...)
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return fail(err, "web core library %s: instantiate WASI: %v", libraryPath, err)
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fail(err, "web core library %s: compile failed: %v", libraryPath, err)
	}

	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")
	if l.Stdout != nil {
		modConfig = modConfig.WithStdout(l.Stdout)
	}
	if l.Stderr != nil {
		modConfig = modConfig.WithStderr(l.Stderr)
	}
	if l.FSRoot != "" {
		modConfig = modConfig.WithFSConfig(wazero.NewFSConfig().WithDirMount(l.FSRoot, "/"))
	}

	mod, err := rt.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return fail(err, "web core library %s: instantiate failed: %v", libraryPath, err)
	}

	e := &wasmEngine{
		ctx:      ctx,
		path:     libraryPath,
		rt:       rt,
		mod:      mod,
		activate: mod.ExportedFunction(ActivateExport),
		shutdown: mod.ExportedFunction(ShutdownExport),
		alloc:    mod.ExportedFunction(CabiRealloc),
	}
	switch {
	case e.activate == nil:
		return fail(nil, "web core library %s: missing export %s", libraryPath, ActivateExport)
	case e.shutdown == nil:
		return fail(nil, "web core library %s: missing export %s", libraryPath, ShutdownExport)
	case e.alloc == nil:
		return fail(nil, "web core library %s: missing export %s", libraryPath, CabiRealloc)
	case mod.Memory() == nil:
		return fail(nil, "web core library %s: module exports no memory", libraryPath)
	}

	Logger().Debug("loaded wasm web core",
		zap.String("library", libraryPath),
		zap.Uint32("memory_pages", mod.Memory().Size()/65536))
	return e, nil
}

type wasmEngine struct {
	ctx      context.Context
	path     string
	rt       wazero.Runtime
	mod      api.Module
	activate api.Function
	shutdown api.Function
	alloc    api.Function
}

func (e *wasmEngine) Activate(hostConfig, rootConfig, instanceName string) error {
	params := make([]uint64, 0, 6)
	for _, s := range []string{hostConfig, rootConfig, instanceName} {
		ptr, err := e.writeString(s)
		if err != nil {
			return err
		}
		params = append(params, uint64(ptr), uint64(len(s)))
	}

	res, err := e.activate.Call(e.ctx, params...)
	if err != nil {
		return runtimeErrorf(err, "%s trapped: %v", ActivateExport, err)
	}
	return checkHRESULT(ActivateExport, resultHRESULT(res))
}

func (e *wasmEngine) Shutdown(immediate bool) error {
	var flag uint64
	if immediate {
		flag = 1
	}
	res, err := e.shutdown.Call(e.ctx, flag)
	if err != nil {
		return runtimeErrorf(err, "%s trapped: %v", ShutdownExport, err)
	}
	return checkHRESULT(ShutdownExport, resultHRESULT(res))
}

func (e *wasmEngine) Close() error {
	// closing the runtime closes the module and the WASI host module
	if err := e.rt.Close(e.ctx); err != nil {
		return runtimeErrorf(err, "release web core library %s: %v", e.path, err)
	}
	return nil
}

// writeString copies s into guest memory allocated with cabi_realloc.
func (e *wasmEngine) writeString(s string) (uint32, error) {
	res, err := e.alloc.Call(e.ctx, 0, 0, 1, uint64(len(s)))
	if err != nil {
		return 0, runtimeErrorf(err, "%s trapped: %v", CabiRealloc, err)
	}
	if len(res) == 0 {
		return 0, runtimeErrorf(nil, "%s returned no pointer", CabiRealloc)
	}
	ptr := uint32(res[0])
	if !e.mod.Memory().Write(ptr, []byte(s)) {
		return 0, runtimeErrorf(nil, "write %d bytes at 0x%x: out of guest memory", len(s), ptr)
	}
	return ptr, nil
}

func resultHRESULT(res []uint64) int32 {
	if len(res) == 0 {
		return 0
	}
	return int32(uint32(res[0]))
}
