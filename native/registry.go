package native

import (
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var instanceNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

type instance struct {
	libraryPath  string
	hostConfig   string
	rootConfig   string
	instanceName string

	engine Engine
	refs   int
}

// Registry owns at most one engine instance at a time.
type Registry struct {
	loader  Loader
	current *instance
}

// NewRegistry returns an empty registry that loads engines with loader.
// A nil loader means DefaultLoader().
func NewRegistry(loader Loader) *Registry {
	if loader == nil {
		loader = DefaultLoader()
	}
	return &Registry{loader: loader}
}

// GetInstance returns a new reference to the current engine, creating and
// activating one from the arguments if none exists. When an engine already
// exists the arguments are still validated but otherwise ignored.
func (r *Registry) GetInstance(libraryPath, hostConfig, rootConfig, instanceName string) (*Ref, error) {
	if err := validate(libraryPath, hostConfig, rootConfig, instanceName); err != nil {
		return nil, err
	}

	if inst := r.current; inst != nil {
		inst.refs++
		Logger().Debug("attached to web core",
			zap.String("instance", inst.instanceName),
			zap.Int("refs", inst.refs))
		return &Ref{registry: r, inst: inst, held: true}, nil
	}

	eng, err := r.loader.Load(libraryPath)
	if err != nil {
		return nil, atStage(err, StageLoad)
	}
	if err := eng.Activate(hostConfig, rootConfig, instanceName); err != nil {
		if cerr := eng.Close(); cerr != nil {
			Logger().Warn("close after failed activation",
				zap.String("library", libraryPath),
				zap.Error(cerr))
		}
		return nil, atStage(err, StageActivate)
	}

	inst := &instance{
		libraryPath:  libraryPath,
		hostConfig:   hostConfig,
		rootConfig:   rootConfig,
		instanceName: instanceName,
		engine:       eng,
		refs:         1,
	}
	r.current = inst
	Logger().Info("web core activated",
		zap.String("library", libraryPath),
		zap.String("host_config", hostConfig),
		zap.String("root_config", rootConfig),
		zap.String("instance", instanceName))
	return &Ref{registry: r, inst: inst, held: true}, nil
}

// Active reports whether an engine instance exists.
func (r *Registry) Active() bool {
	return r.current != nil
}

// References returns the number of live references to the current engine.
func (r *Registry) References() int {
	if r.current == nil {
		return 0
	}
	return r.current.refs
}

// CurrentLibraryPath returns the library path the current engine was
// created with, or "" when none exists.
func (r *Registry) CurrentLibraryPath() string {
	if r.current == nil {
		return ""
	}
	return r.current.libraryPath
}

func (r *Registry) CurrentHostConfig() string {
	if r.current == nil {
		return ""
	}
	return r.current.hostConfig
}

func (r *Registry) CurrentRootConfig() string {
	if r.current == nil {
		return ""
	}
	return r.current.rootConfig
}

func (r *Registry) CurrentInstanceName() string {
	if r.current == nil {
		return ""
	}
	return r.current.instanceName
}

// Ref is one reference to a registry's engine.
type Ref struct {
	registry *Registry
	inst     *instance
	held     bool
}

// Held reports whether the reference has not been released yet.
func (ref *Ref) Held() bool {
	return ref != nil && ref.held
}

// Engine returns the referenced engine, or nil after Release.
func (ref *Ref) Engine() Engine {
	if !ref.Held() {
		return nil
	}
	return ref.inst.engine
}

// Release drops the reference. Releasing the last reference shuts the
// engine down and closes it; the registry is empty afterwards even when
// that fails. Releasing twice is a no-op.
func (ref *Ref) Release(immediate bool) error {
	if !ref.Held() {
		return nil
	}
	ref.held = false

	inst := ref.inst
	inst.refs--
	if inst.refs > 0 {
		Logger().Debug("released web core reference",
			zap.String("instance", inst.instanceName),
			zap.Int("refs", inst.refs))
		return nil
	}

	if ref.registry.current == inst {
		ref.registry.current = nil
	}
	err := multierr.Append(inst.engine.Shutdown(immediate), inst.engine.Close())
	if err != nil {
		Logger().Warn("web core teardown failed",
			zap.String("instance", inst.instanceName),
			zap.Bool("immediate", immediate),
			zap.Error(err))
		return err
	}
	Logger().Info("web core shut down",
		zap.String("instance", inst.instanceName),
		zap.Bool("immediate", immediate))
	return nil
}

func validate(libraryPath, hostConfig, rootConfig, instanceName string) error {
	for _, arg := range []struct{ name, value string }{
		{"library path", libraryPath},
		{"host config", hostConfig},
		{"root config", rootConfig},
		{"instance name", instanceName},
	} {
		if arg.value == "" {
			return invalidArgumentf(nil, "%s must not be empty", arg.name)
		}
		if strings.ContainsRune(arg.value, 0) {
			return invalidArgumentf(nil, "%s contains a NUL character", arg.name)
		}
	}
	if !instanceNamePattern.MatchString(instanceName) {
		return invalidArgumentf(nil, "instance name %q is not valid: use letters, digits, '.', '_' or '-'", instanceName)
	}
	return nil
}
