// Package config loads the hwc command's configuration from a YAML file,
// an optional dotenv file and HWC_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/hostedwebcore"
	"github.com/wippyai/hostedwebcore/errors"
)

// Environment variables overriding file values.
const (
	EnvLibraryPath    = "HWC_LIBRARY_PATH"
	EnvHostConfig     = "HWC_HOST_CONFIG"
	EnvRootConfig     = "HWC_ROOT_CONFIG"
	EnvInstanceName   = "HWC_INSTANCE_NAME"
	EnvLogLevel       = "HWC_LOG_LEVEL"
	EnvLogDevelopment = "HWC_LOG_DEVELOPMENT"
	EnvMetricsListen  = "HWC_METRICS_LISTEN"
	EnvWasmFSRoot     = "HWC_WASM_FS_ROOT"
	EnvWasmMemory     = "HWC_WASM_MEMORY_LIMIT_PAGES"
)

type Config struct {
	LibraryPath  string        `yaml:"library_path"`
	HostConfig   string        `yaml:"host_config"`
	RootConfig   string        `yaml:"root_config"`
	InstanceName string        `yaml:"instance_name"`
	Log          LogConfig     `yaml:"log"`
	Metrics      MetricsConfig `yaml:"metrics"`
	Wasm         WasmConfig    `yaml:"wasm"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	// Listen is the address serving /metrics. Empty disables it.
	Listen    string `yaml:"listen"`
	Namespace string `yaml:"namespace"`
}

// WasmConfig applies to web cores compiled to WebAssembly.
type WasmConfig struct {
	// FSRoot is mounted as the guest's "/". Empty mounts nothing.
	FSRoot string `yaml:"fs_root"`
	// MemoryLimitPages caps guest memory in 64KiB pages. Zero is no cap.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without defaults and validation, for callers that layer
// more values on top.
func Read(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
				Cause(err).
				Detailf("read config %s", path).
				Build()
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
				Cause(err).
				Detailf("parse config %s", path).
				Build()
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads a dotenv file into the process environment. Variables
// already set are kept.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err,
			fmt.Sprintf("load env file %s", path))
	}
	return nil
}

// ApplyEnv overrides fields from HWC_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvLibraryPath, &c.LibraryPath},
		{EnvHostConfig, &c.HostConfig},
		{EnvRootConfig, &c.RootConfig},
		{EnvInstanceName, &c.InstanceName},
		{EnvLogLevel, &c.Log.Level},
		{EnvMetricsListen, &c.Metrics.Listen},
		{EnvWasmFSRoot, &c.Wasm.FSRoot},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}

	if v, ok := lookup(EnvLogDevelopment); ok {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return errors.InvalidConfig(EnvLogDevelopment, fmt.Sprintf("%q is not a boolean", v))
		}
		c.Log.Development = dev
	}

	if v, ok := lookup(EnvWasmMemory); ok {
		pages, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return errors.InvalidConfig(EnvWasmMemory, fmt.Sprintf("%q is not a page count", v))
		}
		c.Wasm.MemoryLimitPages = uint32(pages)
	}
	return nil
}

// ApplyDefaults fills the library path, instance name and log level when
// they are empty.
func (c *Config) ApplyDefaults() {
	if c.LibraryPath == "" {
		c.LibraryPath = hostedwebcore.DefaultLibraryPath()
	}
	if c.InstanceName == "" {
		c.InstanceName = "hwc-" + uuid.NewString()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.HostConfig == "" {
		return errors.InvalidConfig("host_config", "is required")
	}
	if c.RootConfig == "" {
		return errors.InvalidConfig("root_config", "is required")
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return errors.InvalidConfig("log.level", err.Error())
		}
	}
	if c.Wasm.FSRoot != "" {
		info, err := os.Stat(c.Wasm.FSRoot)
		if err != nil || !info.IsDir() {
			return errors.InvalidConfig("wasm.fs_root", fmt.Sprintf("%s is not a directory", c.Wasm.FSRoot))
		}
	}
	return nil
}

// Setup returns the web core setup described by c.
func (c *Config) Setup() *hostedwebcore.Setup {
	return hostedwebcore.NewSetup(c.LibraryPath, c.HostConfig, c.RootConfig, c.InstanceName)
}

// BuildLogger builds a zap logger from the log section.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if c.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if c.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Log.Level)
		if err != nil {
			return nil, errors.InvalidConfig("log.level", err.Error())
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
