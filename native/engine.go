package native

import (
	"path/filepath"
	"strings"
)

// Entry points every web core library exports.
const (
	ActivateExport = "WebCoreActivate"
	ShutdownExport = "WebCoreShutdown"
)

// Engine is a loaded web core library.
type Engine interface {
	// Activate starts the web core. Called at most once.
	Activate(hostConfig, rootConfig, instanceName string) error
	// Shutdown stops an activated web core. immediate is forwarded to the
	// library unchanged.
	Shutdown(immediate bool) error
	// Close releases the library. Called after Shutdown, or after a failed
	// Activate.
	Close() error
}

// Loader opens the engine library at libraryPath.
type Loader interface {
	Load(libraryPath string) (Engine, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(libraryPath string) (Engine, error)

func (f LoaderFunc) Load(libraryPath string) (Engine, error) {
	return f(libraryPath)
}

// ExtensionLoader picks a Loader by the library's file extension.
// Extensions are matched case-insensitively and include the dot.
type ExtensionLoader struct {
	ByExtension map[string]Loader
	Fallback    Loader
}

func (l *ExtensionLoader) Load(libraryPath string) (Engine, error) {
	ext := strings.ToLower(filepath.Ext(libraryPath))
	if ld, ok := l.ByExtension[ext]; ok {
		return ld.Load(libraryPath)
	}
	if l.Fallback == nil {
		return nil, runtimeErrorf(nil, "load web core library %s: no loader for extension %q", libraryPath, ext)
	}
	return l.Fallback.Load(libraryPath)
}

// DefaultLoader loads .wasm web cores with a WasmLoader and everything else
// with the platform library loader.
func DefaultLoader() Loader {
	return &ExtensionLoader{
		ByExtension: map[string]Loader{
			".wasm": &WasmLoader{},
		},
		Fallback: LibraryLoader(),
	}
}
