//go:build windows

package native

import (
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

type libraryLoader struct{}

// LibraryLoader returns the loader for hosted web core DLLs (hwebcore.dll).
func LibraryLoader() Loader {
	return libraryLoader{}
}

func (libraryLoader) Load(libraryPath string) (Engine, error) {
	dll, err := windows.LoadDLL(libraryPath)
	if err != nil {
		return nil, runtimeErrorf(err, "load web core library %s: %v", libraryPath, err)
	}

	activate, err := dll.FindProc(ActivateExport)
	if err != nil {
		_ = dll.Release()
		return nil, runtimeErrorf(err, "web core library %s: %v", libraryPath, err)
	}
	shutdown, err := dll.FindProc(ShutdownExport)
	if err != nil {
		_ = dll.Release()
		return nil, runtimeErrorf(err, "web core library %s: %v", libraryPath, err)
	}

	Logger().Debug("loaded web core library", zap.String("library", libraryPath))
	return &libraryEngine{dll: dll, activate: activate, shutdown: shutdown}, nil
}

type libraryEngine struct {
	dll      *windows.DLL
	activate *windows.Proc
	shutdown *windows.Proc
}

func (e *libraryEngine) Activate(hostConfig, rootConfig, instanceName string) error {
	host, err := windows.UTF16PtrFromString(hostConfig)
	if err != nil {
		return invalidArgumentf(err, "host config %q: %v", hostConfig, err)
	}
	root, err := windows.UTF16PtrFromString(rootConfig)
	if err != nil {
		return invalidArgumentf(err, "root config %q: %v", rootConfig, err)
	}
	name, err := windows.UTF16PtrFromString(instanceName)
	if err != nil {
		return invalidArgumentf(err, "instance name %q: %v", instanceName, err)
	}

	hr, _, _ := e.activate.Call(
		uintptr(unsafe.Pointer(host)),
		uintptr(unsafe.Pointer(root)),
		uintptr(unsafe.Pointer(name)),
	)
	return checkHRESULT(ActivateExport, int32(hr))
}

func (e *libraryEngine) Shutdown(immediate bool) error {
	var flag uintptr
	if immediate {
		flag = 1
	}
	hr, _, _ := e.shutdown.Call(flag)
	return checkHRESULT(ShutdownExport, int32(hr))
}

func (e *libraryEngine) Close() error {
	if err := e.dll.Release(); err != nil {
		return runtimeErrorf(err, "release web core library %s: %v", e.dll.Name, err)
	}
	return nil
}
