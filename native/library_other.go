//go:build !windows

package native

type libraryLoader struct{}

// LibraryLoader returns the platform library loader. Hosted web core DLLs
// only exist on Windows; here every Load fails with a runtime error.
func LibraryLoader() Loader {
	return libraryLoader{}
}

func (libraryLoader) Load(libraryPath string) (Engine, error) {
	return nil, runtimeErrorf(nil,
		"load web core library %s: native web core libraries can only be loaded on windows, use a .wasm web core",
		libraryPath)
}
