package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/nativeimage-mcp/internal/admission"
	"github.com/ironsheep/nativeimage-mcp/internal/config"
	"github.com/ironsheep/nativeimage-mcp/internal/logging"
	"github.com/ironsheep/nativeimage-mcp/internal/nimage"
	"github.com/ironsheep/nativeimage-mcp/internal/server"
	"github.com/ironsheep/nativeimage-mcp/internal/softengine"
	"github.com/ironsheep/nativeimage-mcp/internal/telemetry"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "nativeimage-mcp: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "nativeimage-mcp",
		Short: "MCP server for memory-admitted image processing",
		Long: `nativeimage-mcp keeps decoded images in engine memory behind opaque
handles and refuses allocations that would push the process too close to
total device memory. It communicates via MCP protocol over stdin/stdout;
configure it in your MCP client.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log verbosity (debug, info, warn, error); overrides the config file")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format (console, json); overrides the config file")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}

	root.AddCommand(
		a.newServeCommand(),
		a.newMemoryCommand(),
		a.newProbeCommand(),
		newVersionCommand(),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// runtime wires telemetry, admission and the engine from the configuration.
func (a *app) runtime() (*nimage.Runtime, error) {
	src, err := telemetry.New(a.cfg.TelemetryOptions())
	if err != nil {
		return nil, err
	}
	cached := telemetry.NewCached(src, time.Duration(a.cfg.Telemetry.RefreshInterval),
		telemetry.WithLogger(a.logger.Named("telemetry")))

	opts := append(a.cfg.AdmissionOptions(), admission.WithLogger(a.logger.Named("admission")))
	ctrl := admission.NewController(cached, admission.NewLedger(a.logger.Named("ledger")), opts...)

	engine := softengine.New(softengine.Options{
		MaxBytes:   a.cfg.Engine.MaxBytes,
		MaxObjects: a.cfg.Engine.MaxObjects,
		Logger:     a.logger.Named("engine"),
	})
	return nimage.NewRuntime(engine, ctrl, nimage.WithLogger(a.logger.Named("nimage"))), nil
}

func (a *app) serve(ctx context.Context) error {
	defer a.logger.Sync() //nolint:errcheck

	rt, err := a.runtime()
	if err != nil {
		return err
	}

	a.logger.Debug("starting server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
		zap.Bool("strict_admission", rt.Admission().Strict()))

	srv := server.New(rt, server.WithLogger(a.logger.Named("server")), server.WithVersion(Version))
	err = srv.Run(ctx)

	for _, rec := range nimage.DumpLeaks() {
		a.logger.Warn("handle leaked", zap.Uint64("ref", uint64(rec.Ref)), zap.String("stack", rec.Stack))
	}
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *app) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP requests on stdin/stdout (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) newMemoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "memory",
		Short: "Print device memory and the active admission limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			st, err := rt.Admission().Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}
}

func (a *app) newProbeCommand() *cobra.Command {
	var bytesPerPixel int

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Args:  cobra.ExactArgs(1),
		Short: "Read an image header and report whether loading it would be admitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			result, err := server.Probe(cmd.Context(), rt, args[0], bytesPerPixel)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().IntVar(&bytesPerPixel, "bpp", 4, "Bytes per pixel of the target handle (3 or 4)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "nativeimage-mcp %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
