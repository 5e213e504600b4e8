package hostedwebcore

import "fmt"

// Setup describes how to locate and start a web core. It is immutable once
// constructed. Fields are not validated here; the engine registry validates
// them when the engine is created.
type Setup struct {
	libraryPath  string
	hostConfig   string
	rootConfig   string
	instanceName string
}

// NewSetup creates a setup with an explicit engine library location.
func NewSetup(libraryPath, hostConfig, rootConfig, instanceName string) *Setup {
	return &Setup{
		libraryPath:  libraryPath,
		hostConfig:   hostConfig,
		rootConfig:   rootConfig,
		instanceName: instanceName,
	}
}

// NewDefaultSetup creates a setup that loads the engine library from
// DefaultLibraryPath.
func NewDefaultSetup(hostConfig, rootConfig, instanceName string) *Setup {
	return NewSetup(DefaultLibraryPath(), hostConfig, rootConfig, instanceName)
}

// LibraryPath is the location of the engine library.
func (s *Setup) LibraryPath() string { return s.libraryPath }

// HostConfig is the location of the host (applicationHost) configuration.
func (s *Setup) HostConfig() string { return s.hostConfig }

// RootConfig is the location of the root web configuration.
func (s *Setup) RootConfig() string { return s.rootConfig }

// InstanceName distinguishes this engine from others started sequentially
// in the same process.
func (s *Setup) InstanceName() string { return s.instanceName }

// Equal reports whether both setups carry the same four values.
// Two nil setups are equal.
func (s *Setup) Equal(other *Setup) bool {
	if s == nil || other == nil {
		return s == other
	}
	return *s == *other
}

func (s *Setup) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (library=%s host=%s root=%s)",
		s.instanceName, s.libraryPath, s.hostConfig, s.rootConfig)
}
