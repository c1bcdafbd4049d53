// Package main provides the hello-compute CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/born-ml/hellocompute/internal/backend/webgpu"
	"github.com/born-ml/hellocompute/internal/config"
	"github.com/born-ml/hellocompute/internal/input"
	"github.com/born-ml/hellocompute/internal/logging"
	"github.com/born-ml/hellocompute/internal/parallel"
	"github.com/born-ml/hellocompute/internal/report"
	"github.com/born-ml/hellocompute/internal/shader"
	"github.com/born-ml/hellocompute/internal/sysinfo"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

// app holds the process dependencies so tests can swap the GPU out.
type app struct {
	stdout io.Writer
	stderr io.Writer

	loadConfig   func() (config.Config, error)
	run          func(ctx context.Context, opts webgpu.Options, numbers []uint32) (*webgpu.Result, error)
	listAdapters func() ([]*wgpu.AdapterInfo, error)
	describeHost func() (sysinfo.Host, error)
}

func newApp() *app {
	return &app{
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		loadConfig:   config.Load,
		run:          webgpu.Run,
		listAdapters: webgpu.ListAdapters,
		describeHost: sysinfo.Describe,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp()
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "hello-compute: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// flags mirrors the command-line overrides of config.Config.
type flags struct {
	power    string
	backend  string
	shader   string
	noStats  bool
	parallel int
	timeout  time.Duration
	json     bool
	logLevel string
	traceDir string
}

func (a *app) rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "hello-compute [flags] [numbers...]",
		Short: "Run a compute shader over a list of numbers on the GPU",
		Long: "hello-compute uploads the numbers to a GPU storage buffer, runs one shader\n" +
			"invocation per element and prints the result together with the number of\n" +
			"compute shader invocations reported by the driver.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compute(cmd, f, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.power, "power", "", "adapter power preference: default, low or high")
	fs.StringVar(&f.backend, "backend", "", "native backend: any, vulkan, metal, dx12 or gl")
	fs.StringVar(&f.shader, "shader", "", "WGSL shader `file` to run instead of the built-in one")
	fs.BoolVar(&f.noStats, "no-stats", false, "skip the pipeline statistics query")
	fs.IntVar(&f.parallel, "parallel", 0, "run `N` independent invocations concurrently")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-invocation time bound when running in parallel")
	fs.BoolVar(&f.json, "json", false, "print one JSON object per invocation")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.traceDir, "trace-dir", "", "directory receiving the diagnostic log")

	cmd.AddCommand(a.versionCmd(), a.adaptersCmd())
	return cmd
}

// resolve applies changed flags on top of the environment configuration.
func (a *app) resolve(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("power") {
		cfg.Power = config.Power(f.power)
	}
	if fs.Changed("backend") {
		cfg.Backend = config.Backend(f.backend)
	}
	if fs.Changed("shader") {
		cfg.ShaderPath = f.shader
	}
	if fs.Changed("no-stats") {
		cfg.Statistics = !f.noStats
	}
	if fs.Changed("parallel") {
		cfg.Parallel = f.parallel
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("json") {
		cfg.JSON = f.json
	}
	if fs.Changed("log-level") {
		level, err := config.ParseLogLevel(f.logLevel)
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = level
	}
	if fs.Changed("trace-dir") {
		cfg.TraceDir = f.traceDir
	}
	return cfg, cfg.Validate()
}

func (a *app) compute(cmd *cobra.Command, f flags, args []string) error {
	// Nothing touches the GPU before the arguments are known to be valid.
	numbers, defaulted, err := input.Parse(args)
	if err != nil {
		return &webgpu.StageError{Stage: webgpu.StageInput, Err: err}
	}

	cfg, err := a.resolve(cmd, f)
	if err != nil {
		return err
	}

	printer := report.Printer{W: a.stdout, JSON: cfg.JSON}
	if defaulted && !cfg.JSON {
		if err := printer.Defaulted(numbers); err != nil {
			return err
		}
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Stderr: a.stderr, TraceDir: cfg.TraceDir})
	if err != nil {
		return err
	}
	defer log.Close()
	webgpu.SetLogger(log.Logger)
	defer webgpu.SetLogger(nil)

	src := shader.Default()
	if cfg.ShaderPath != "" {
		src, err = shader.Load(cfg.ShaderPath)
		if err != nil {
			return &webgpu.StageError{Stage: webgpu.StageShader, Err: err}
		}
	}
	opts := webgpu.OptionsFromConfig(cfg, src)
	ctx := cmd.Context()

	if cfg.Parallel <= 1 {
		res, err := a.run(ctx, opts, numbers)
		if err != nil {
			return err
		}
		return printer.Result(res, defaulted)
	}

	log.Info("running invocations in parallel", "callers", cfg.Parallel, "timeout", cfg.Timeout)

	var mu sync.Mutex
	results := make([]*webgpu.Result, cfg.Parallel)
	err = parallel.Run(ctx, parallel.Config{Workers: cfg.Parallel, Timeout: cfg.Timeout},
		func(ctx context.Context, i int) error {
			res, err := a.run(ctx, opts, numbers)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	for _, res := range results {
		if err := printer.Result(res, defaulted); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(a.stdout, "hello-compute %s\n", version)
			return err
		},
	}
}

func (a *app) adaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List GPU adapters and describe the host",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			host, err := a.describeHost()
			if err != nil {
				fmt.Fprintf(a.stderr, "hello-compute: %v\n", err)
			} else {
				fmt.Fprintf(a.stdout, "Host: %s\n", host)
			}

			adapters, err := a.listAdapters()
			if err != nil {
				return &webgpu.StageError{Stage: webgpu.StageAdapter, Err: err}
			}
			for i, info := range adapters {
				fmt.Fprintf(a.stdout, "Adapter %d: %s (%s), backend %v, type %v, driver %q\n",
					i, info.Name, info.VendorName, info.BackendType, info.AdapterType, info.DriverDescription)
			}
			return nil
		},
	}
}
