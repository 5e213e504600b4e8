//go:build !windows

package hostedwebcore

// DefaultLibraryPath returns the conventional install location of a web core
// compiled to WebAssembly. Windows libraries cannot be loaded on this platform.
func DefaultLibraryPath() string {
	return "/usr/local/lib/hwebcore/hwebcore.wasm"
}
