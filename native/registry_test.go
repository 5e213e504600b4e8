package native

import (
	"errors"
	"testing"
)

type fakeEngine struct {
	activateErr error
	shutdownErr error
	closeErr    error

	activated     []string
	shutdowns     int
	lastImmediate bool
	closed        int
}

func (e *fakeEngine) Activate(hostConfig, rootConfig, instanceName string) error {
	e.activated = []string{hostConfig, rootConfig, instanceName}
	return e.activateErr
}

func (e *fakeEngine) Shutdown(immediate bool) error {
	e.shutdowns++
	e.lastImmediate = immediate
	return e.shutdownErr
}

func (e *fakeEngine) Close() error {
	e.closed++
	return e.closeErr
}

type fakeLoader struct {
	engines []*fakeEngine
	loadErr error
	paths   []string
}

func (l *fakeLoader) Load(libraryPath string) (Engine, error) {
	l.paths = append(l.paths, libraryPath)
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	e := &fakeEngine{}
	l.engines = append(l.engines, e)
	return e, nil
}

func TestRegistry_GetInstanceCreatesOnce(t *testing.T) {
	loader := &fakeLoader{}
	r := NewRegistry(loader)

	first, err := r.GetInstance("lib.dll", "host.config", "root.config", "site1")
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}
	second, err := r.GetInstance("other.dll", "other-host.config", "other-root.config", "site2")
	if err != nil {
		t.Fatalf("second GetInstance failed: %v", err)
	}

	if len(loader.engines) != 1 {
		t.Fatalf("expected 1 engine loaded, got %d", len(loader.engines))
	}
	if first.Engine() != second.Engine() {
		t.Error("both references should share one engine")
	}
	if r.References() != 2 {
		t.Errorf("expected 2 references, got %d", r.References())
	}

	got := []string{r.CurrentLibraryPath(), r.CurrentHostConfig(), r.CurrentRootConfig(), r.CurrentInstanceName()}
	want := []string{"lib.dll", "host.config", "root.config", "site1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("current[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	activated := loader.engines[0].activated
	if len(activated) != 3 || activated[0] != "host.config" || activated[2] != "site1" {
		t.Errorf("unexpected activation arguments: %v", activated)
	}
}

func TestRegistry_LastReleaseTearsDown(t *testing.T) {
	loader := &fakeLoader{}
	r := NewRegistry(loader)

	a, _ := r.GetInstance("lib.dll", "h", "r", "one")
	b, _ := r.GetInstance("lib.dll", "h", "r", "one")
	eng := loader.engines[0]

	if err := a.Release(false); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if eng.shutdowns != 0 {
		t.Error("engine shut down while a reference is still held")
	}
	if !r.Active() {
		t.Error("registry should still be active")
	}

	if err := b.Release(true); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if eng.shutdowns != 1 || eng.closed != 1 {
		t.Errorf("expected 1 shutdown and 1 close, got %d and %d", eng.shutdowns, eng.closed)
	}
	if !eng.lastImmediate {
		t.Error("immediate flag was not forwarded")
	}
	if r.Active() || r.CurrentInstanceName() != "" {
		t.Error("registry should be empty after the last release")
	}

	c, err := r.GetInstance("lib2.dll", "h2", "r2", "two")
	if err != nil {
		t.Fatalf("GetInstance after teardown failed: %v", err)
	}
	defer c.Release(false)
	if len(loader.engines) != 2 {
		t.Errorf("expected a new engine after teardown, got %d loads", len(loader.engines))
	}
	if r.CurrentInstanceName() != "two" || r.CurrentLibraryPath() != "lib2.dll" {
		t.Errorf("current setup not replaced: %s %s", r.CurrentLibraryPath(), r.CurrentInstanceName())
	}
}

func TestRef_ReleaseTwice(t *testing.T) {
	loader := &fakeLoader{}
	r := NewRegistry(loader)

	ref, _ := r.GetInstance("lib.dll", "h", "r", "one")
	other, _ := r.GetInstance("lib.dll", "h", "r", "one")
	defer other.Release(false)

	if err := ref.Release(false); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if err := ref.Release(false); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
	if ref.Held() {
		t.Error("ref should not be held")
	}
	if ref.Engine() != nil {
		t.Error("released ref should not expose its engine")
	}
	if r.References() != 1 {
		t.Errorf("double release dropped another reference: %d left", r.References())
	}

	var nilRef *Ref
	if nilRef.Held() {
		t.Error("nil ref should not be held")
	}
	if err := nilRef.Release(false); err != nil {
		t.Errorf("nil Release: %v", err)
	}
}

func TestRegistry_Validation(t *testing.T) {
	tests := []struct {
		name string
		args [4]string
	}{
		{"empty library", [4]string{"", "h", "r", "n"}},
		{"empty host config", [4]string{"lib", "", "r", "n"}},
		{"empty root config", [4]string{"lib", "h", "", "n"}},
		{"empty instance name", [4]string{"lib", "h", "r", ""}},
		{"nul in host config", [4]string{"lib", "h\x00", "r", "n"}},
		{"space in instance name", [4]string{"lib", "h", "r", "my site"}},
		{"leading dash", [4]string{"lib", "h", "r", "-site"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{}
			r := NewRegistry(loader)

			_, err := r.GetInstance(tt.args[0], tt.args[1], tt.args[2], tt.args[3])
			var nerr *Error
			if !errors.As(err, &nerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if nerr.Class != ClassInvalidArgument {
				t.Errorf("expected invalid argument class, got %v", nerr.Class)
			}
			if len(loader.paths) != 0 {
				t.Error("loader should not be called for invalid arguments")
			}
		})
	}
}

func TestRegistry_ValidatesWhenAttaching(t *testing.T) {
	r := NewRegistry(&fakeLoader{})
	ref, err := r.GetInstance("lib", "h", "r", "n")
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}
	defer ref.Release(false)

	if _, err := r.GetInstance("lib", "", "r", "n"); err == nil {
		t.Error("expected validation error while attaching")
	}
	if r.References() != 1 {
		t.Errorf("failed attach changed the reference count to %d", r.References())
	}
}

func TestRegistry_LoadFailure(t *testing.T) {
	loadErr := runtimeErrorf(nil, "library not found")
	r := NewRegistry(&fakeLoader{loadErr: loadErr})

	_, err := r.GetInstance("missing.dll", "h", "r", "n")
	var nerr *Error
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if nerr.Stage != StageLoad || nerr.Message != loadErr.Message {
		t.Errorf("got stage %v message %q, want load %q", nerr.Stage, nerr.Message, loadErr.Message)
	}
	if loadErr.Stage != StageUnknown {
		t.Error("the loader's own error should not be modified")
	}
	if r.Active() {
		t.Error("registry should stay empty")
	}
}

func TestRegistry_ActivateFailureClosesEngine(t *testing.T) {
	activateErr := checkHRESULT(ActivateExport, hrAlreadyRunning)
	loader := LoaderFunc(func(string) (Engine, error) {
		return &fakeEngine{activateErr: activateErr}, nil
	})
	r := NewRegistry(loader)

	_, err := r.GetInstance("lib", "h", "r", "n")
	var nerr *Error
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if nerr.Stage != StageActivate || nerr.Error() != activateErr.Error() {
		t.Errorf("got stage %v message %q", nerr.Stage, nerr.Error())
	}
	if r.Active() {
		t.Error("registry should stay empty after a failed activation")
	}
}

func TestRegistry_ActivateFailureEngineClosed(t *testing.T) {
	boom := errors.New("boom")
	eng := &fakeEngine{activateErr: boom}
	r := NewRegistry(LoaderFunc(func(string) (Engine, error) { return eng, nil }))

	if _, err := r.GetInstance("lib", "h", "r", "n"); err != boom {
		t.Fatalf("expected the engine's own error verbatim, got %v", err)
	}
	if eng.closed != 1 {
		t.Errorf("expected engine closed once, got %d", eng.closed)
	}
	if eng.shutdowns != 0 {
		t.Error("engine that never activated should not be shut down")
	}
}

func TestRegistry_ValidationHasNoStage(t *testing.T) {
	r := NewRegistry(&fakeLoader{})

	_, err := r.GetInstance("lib", "h", "r", "")
	var nerr *Error
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if nerr.Stage != StageUnknown {
		t.Errorf("validation failure tagged with stage %v", nerr.Stage)
	}
}

func TestRef_ReleaseCombinesTeardownErrors(t *testing.T) {
	shutdownErr := runtimeErrorf(nil, "shutdown failed")
	closeErr := runtimeErrorf(nil, "close failed")
	eng := &fakeEngine{shutdownErr: shutdownErr, closeErr: closeErr}
	r := NewRegistry(LoaderFunc(func(string) (Engine, error) { return eng, nil }))

	ref, err := r.GetInstance("lib", "h", "r", "n")
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}

	err = ref.Release(false)
	if !errors.Is(err, shutdownErr) || !errors.Is(err, closeErr) {
		t.Errorf("expected both teardown errors, got %v", err)
	}
	if eng.closed != 1 {
		t.Error("engine should be closed even when shutdown fails")
	}
	if r.Active() {
		t.Error("registry should be empty after a failed teardown")
	}
}

func TestNewRegistry_DefaultLoader(t *testing.T) {
	r := NewRegistry(nil)
	if _, ok := r.loader.(*ExtensionLoader); !ok {
		t.Errorf("expected *ExtensionLoader, got %T", r.loader)
	}
}
