// Package native loads hosted web core engines and keeps the process-wide
// engine instance behind reference-counted handles.
//
// This package is the low-level layer under webcore. Most users should use
// webcore, which adds the critical section, error translation and
// abandonment cleanup on top of it.
//
// # Engines and Loaders
//
// A Loader opens an engine library; an Engine is activated once with the
// host configuration, root configuration and instance name, then shut down
// and closed once:
//
//	Loader.Load(libraryPath) -> Engine
//	Engine.Activate(hostConfig, rootConfig, instanceName)
//	Engine.Shutdown(immediate)
//	Engine.Close()
//
// DefaultLoader dispatches on the library extension:
//
//	.wasm   WasmLoader: a web core compiled to WebAssembly, run by wazero
//	other   the platform library loader (hwebcore.dll through LoadLibrary
//	        on Windows; unsupported elsewhere)
//
// # WebAssembly Web Core ABI
//
// A WebAssembly web core exports:
//
//	memory
//	cabi_realloc(old_ptr, old_size, align, new_size i32) i32
//	WebCoreActivate(host_ptr, host_len, root_ptr, root_len, name_ptr, name_len i32) i32
//	WebCoreShutdown(immediate i32) i32
//
// Strings are UTF-8 and written into guest memory allocated through
// cabi_realloc. Both entry points return an HRESULT; negative values fail.
// The module may import wasi_snapshot_preview1.
//
// # Registry
//
// Registry.GetInstance validates its arguments, then either returns a new
// Ref to the engine that already exists or loads and activates a new one.
// The engine is shut down when its last Ref is released. The setup of the
// first successful creation is what the Current* accessors report.
//
// # Failure Classes
//
// Every failure produced here is an *Error of ClassRuntime (library missing,
// entry point missing, activation HRESULT, ...) or ClassInvalidArgument
// (empty or malformed values, E_INVALIDARG). Errors of any other type coming
// from a custom Loader or Engine are passed through untouched.
// GetInstance tags load and activation failures with their Stage so callers
// can tell which half of creation failed; validation failures stay at
// StageUnknown.
//
// # Thread Safety
//
// Registry and Ref are NOT safe for concurrent use. webcore serializes every
// call under its critical section.
package native
