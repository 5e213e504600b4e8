package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
	"golang.org/x/term"

	"github.com/wippyai/hostedwebcore/config"
	"github.com/wippyai/hostedwebcore/native"
	"github.com/wippyai/hostedwebcore/webcore"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to YAML config file")
		envFile     = flag.String("env", "", "Path to dotenv file")
		libraryPath = flag.String("lib", "", "Web core library (hwebcore.dll or .wasm)")
		hostConfig  = flag.String("host", "", "Host configuration file (applicationHost.config)")
		rootConfig  = flag.String("root", "", "Root configuration file (root web.config)")
		name        = flag.String("name", "", "Instance name")
		immediate   = flag.Bool("immediate", false, "Stop immediately instead of draining requests")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if err := run(*configFile, *envFile, overrides{
		libraryPath: *libraryPath,
		hostConfig:  *hostConfig,
		rootConfig:  *rootConfig,
		name:        *name,
	}, *immediate, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type overrides struct {
	libraryPath string
	hostConfig  string
	rootConfig  string
	name        string
}

func (o overrides) apply(cfg *config.Config) {
	if o.libraryPath != "" {
		cfg.LibraryPath = o.libraryPath
	}
	if o.hostConfig != "" {
		cfg.HostConfig = o.hostConfig
	}
	if o.rootConfig != "" {
		cfg.RootConfig = o.rootConfig
	}
	if o.name != "" {
		cfg.InstanceName = o.name
	}
}

func loadConfig(configFile, envFile string, o overrides) (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Read(configFile)
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(configFile, envFile string, o overrides, immediate, interactive bool) error {
	cfg, err := loadConfig(configFile, envFile, o)
	if err != nil {
		return err
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	native.SetLogger(logger.Named("native"))
	webcore.SetLogger(logger.Named("webcore"))

	loader, guest := newLoader(cfg, logger)
	defer guest.Close()
	opts := []webcore.Option{webcore.WithLoader(loader)}

	if cfg.Metrics.Listen != "" {
		pmc := webcore.NewPrometheusMetricsCollector(cfg.Metrics.Namespace)
		opts = append(opts, webcore.WithMetricsCollector(pmc))
		srv := serveMetrics(cfg.Metrics.Listen, pmc, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	host := webcore.NewHost(opts...)

	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(host, cfg)
	}

	wc, err := host.New(cfg.Setup())
	if err != nil {
		return err
	}

	current, err := host.CurrentSetup()
	if err != nil {
		_ = wc.Stop(true)
		return err
	}
	logger.Info("web core running",
		zap.Stringer("setup", current),
		zap.Bool("immediate_stop", immediate))
	fmt.Printf("Web core %s running, press Ctrl+C to stop\n", current.InstanceName())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println("Stopping web core...")
	return wc.Stop(immediate)
}

// guestOutput routes a WebAssembly web core's stdout and stderr into the
// logger, one entry per line.
type guestOutput struct {
	stdout *zapio.Writer
	stderr *zapio.Writer
}

func (g *guestOutput) Close() error {
	return multierr.Append(g.stdout.Close(), g.stderr.Close())
}

func newLoader(cfg *config.Config, logger *zap.Logger) (native.Loader, *guestOutput) {
	guest := logger.Named("guest")
	out := &guestOutput{
		stdout: &zapio.Writer{Log: guest.With(zap.String("stream", "stdout")), Level: zapcore.InfoLevel},
		stderr: &zapio.Writer{Log: guest.With(zap.String("stream", "stderr")), Level: zapcore.WarnLevel},
	}

	loader := &native.ExtensionLoader{
		ByExtension: map[string]native.Loader{
			".wasm": &native.WasmLoader{
				MemoryLimitPages: cfg.Wasm.MemoryLimitPages,
				Stdout:           out.stdout,
				Stderr:           out.stderr,
				FSRoot:           cfg.Wasm.FSRoot,
			},
		},
		Fallback: native.LibraryLoader(),
	}
	return loader, out
}

func serveMetrics(addr string, pmc *webcore.PrometheusMetricsCollector, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(pmc.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.String("listen", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("listen", addr))
	return srv
}
