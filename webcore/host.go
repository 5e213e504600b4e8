package webcore

import (
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/hostedwebcore"
	"github.com/wippyai/hostedwebcore/errors"
	"github.com/wippyai/hostedwebcore/internal/critsec"
	"github.com/wippyai/hostedwebcore/native"
)

// Host owns a critical section and the engine registry it guards.
type Host struct {
	cs       *critsec.CriticalSection
	registry *native.Registry
	metrics  MetricsCollector
	loader   native.Loader
}

// Option configures a Host.
type Option func(*Host)

// WithLoader sets the loader used to open engine libraries.
func WithLoader(l native.Loader) Option {
	return func(h *Host) {
		h.loader = l
	}
}

// WithMetricsCollector sets the collector receiving lifecycle events.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// NewHost returns a Host with its own critical section and registry.
// Most programs use the default host through the package-level functions.
func NewHost(opts ...Option) *Host {
	h := &Host{
		cs: critsec.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewNoopMetricsCollector()
	}
	h.registry = native.NewRegistry(h.loader)
	return h
}

var defaultHost = NewHost()

// Default returns the process-wide host.
func Default() *Host {
	return defaultHost
}

// New creates the engine from setup, or attaches to the one that already
// exists, and returns a handle holding one reference to it.
func New(setup *hostedwebcore.Setup) (*WebCore, error) {
	return defaultHost.New(setup)
}

// NewWithLibrary is New with a setup built from the four values.
func NewWithLibrary(libraryPath, hostConfig, rootConfig, instanceName string) (*WebCore, error) {
	return defaultHost.NewWithLibrary(libraryPath, hostConfig, rootConfig, instanceName)
}

// NewDefault is New with a setup using the default library path.
func NewDefault(hostConfig, rootConfig, instanceName string) (*WebCore, error) {
	return defaultHost.NewDefault(hostConfig, rootConfig, instanceName)
}

// CurrentSetup returns the setup the current engine was created with.
func CurrentSetup() (*hostedwebcore.Setup, error) {
	return defaultHost.CurrentSetup()
}

// NewWithLibrary is New with a setup built from the four values.
func (h *Host) NewWithLibrary(libraryPath, hostConfig, rootConfig, instanceName string) (*WebCore, error) {
	return h.New(hostedwebcore.NewSetup(libraryPath, hostConfig, rootConfig, instanceName))
}

// NewDefault is New with a setup using the default library path.
func (h *Host) NewDefault(hostConfig, rootConfig, instanceName string) (*WebCore, error) {
	return h.New(hostedwebcore.NewDefaultSetup(hostConfig, rootConfig, instanceName))
}

// New creates the engine from setup, or attaches to the one that already
// exists. A nil setup fails with KindNullSetup without taking the lock.
func (h *Host) New(setup *hostedwebcore.Setup) (*WebCore, error) {
	if setup == nil {
		return nil, errors.NullSetup(errors.PhaseCreate, "setup")
	}

	defer critsec.Acquire(h.cs).Release()

	attaching := h.registry.Active()
	start := time.Now()
	ref, err := h.registry.GetInstance(
		setup.LibraryPath(),
		setup.HostConfig(),
		setup.RootConfig(),
		setup.InstanceName(),
	)
	if err != nil {
		err = translate(errors.PhaseCreate, err)
		h.metrics.CreateFailed(errors.KindOf(err))
		Logger().Warn("web core creation failed",
			zap.Stringer("setup", setup),
			zap.Error(err))
		return nil, err
	}

	name := h.registry.CurrentInstanceName()
	if attaching {
		h.metrics.EngineAttached(name)
	} else {
		h.metrics.EngineCreated(name, time.Since(start))
	}
	h.metrics.ReferencesActive(h.registry.References())

	return newWebCore(h, ref), nil
}

// CurrentSetup returns a copy of the setup the current engine was created
// with, or a KindNotCreated error when there is none.
func (h *Host) CurrentSetup() (*hostedwebcore.Setup, error) {
	defer critsec.Acquire(h.cs).Release()

	if !h.registry.Active() {
		return nil, errors.NotCreated(errors.PhaseRead)
	}
	return hostedwebcore.NewSetup(
		h.registry.CurrentLibraryPath(),
		h.registry.CurrentHostConfig(),
		h.registry.CurrentRootConfig(),
		h.registry.CurrentInstanceName(),
	), nil
}

// References returns the number of live handles on the current engine.
func (h *Host) References() int {
	defer critsec.Acquire(h.cs).Release()
	return h.registry.References()
}

// Dispose retires the host's critical section. Afterwards no call blocks
// and nothing is serialized; it belongs at process teardown.
func (h *Host) Dispose() {
	h.cs.Dispose()
}

// releaseLocked drops ref. The caller holds h.cs.
func (h *Host) releaseLocked(ref *native.Ref, immediate, abandoned bool) error {
	if !ref.Held() {
		return nil
	}

	name := h.registry.CurrentInstanceName()
	last := h.registry.References() == 1
	start := time.Now()
	err := ref.Release(immediate)

	h.metrics.ReferenceReleased(name, abandoned)
	if last {
		h.metrics.EngineTornDown(name, immediate, time.Since(start), err)
	}
	h.metrics.ReferencesActive(h.registry.References())

	if err != nil {
		return translate(errors.PhaseStop, err)
	}
	return nil
}

// abandon releases the reference of a handle that was garbage collected
// without Stop.
func (h *Host) abandon(ref *native.Ref) {
	defer critsec.Acquire(h.cs).Release()

	if !ref.Held() {
		return
	}
	Logger().Debug("releasing abandoned web core handle",
		zap.String("instance", h.registry.CurrentInstanceName()))
	if err := h.releaseLocked(ref, false, true); err != nil {
		Logger().Error("abandoned web core teardown failed", zap.Error(err))
	}
}

// translate maps native failures onto error kinds. Load and activation
// failures report their own phase instead of the caller's. Anything else
// passes through unchanged.
func translate(phase errors.Phase, err error) error {
	var nerr *native.Error
	if !stderrors.As(err, &nerr) {
		return err
	}

	var kind errors.Kind
	switch nerr.Class {
	case native.ClassInvalidArgument:
		kind = errors.KindInvalidArgument
	case native.ClassRuntime:
		kind = errors.KindInvalidOperation
	default:
		return err
	}

	switch nerr.Stage {
	case native.StageLoad:
		phase = errors.PhaseLoad
	case native.StageActivate:
		phase = errors.PhaseActivate
	}

	return errors.New(phase, kind).
		Cause(err).
		Detail(err.Error()).
		Build()
}
