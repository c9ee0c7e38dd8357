package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"route-recon/internal/config"
	"route-recon/internal/logger"
)

const (
	appName    = "Route Recon"
	appVersion = "1.0.0"
	appDesc    = "Static route extraction for compiled Jooby MVC controllers"
)

// cliOptions holds flags shared by the root and watch commands
type cliOptions struct {
	configPath  string
	verbose     bool
	manifest    string
	parallelism int
	outputDir   string
	formats     []string
	noProgress  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "route-recon",
		Short: appDesc,
		Long: `route-recon reads compiled controller classes from a classpath, resolves the
mounts listed in a manifest or the config file, and reports every HTTP operation
they register: verb, path, parameters, request body and response type.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner(cmd.OutOrStdout())

			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Close()

			if _, err := runPass(cmd.Context(), cfg, !opts.noProgress, cmd.OutOrStdout()); err != nil {
				logger.Error("Analysis failed: %v", err)
				return err
			}
			logger.Info("Analysis complete. Check [%s] directory.", cfg.Output.Dir)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to configuration file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging (DEBUG level)")
	flags.StringVar(&opts.manifest, "manifest", "", "Mount manifest file (overrides analysis.manifest)")
	flags.IntVarP(&opts.parallelism, "parallelism", "p", 0, "Mounts processed concurrently (overrides analysis.parallelism)")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "Override output directory from config")
	flags.StringSliceVarP(&opts.formats, "format", "f", nil, "Output formats: excel, html, word, openapi, json")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable progress bars and the operation table")

	root.AddCommand(newWatchCmd(opts), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n%s\n", appName, appVersion, appDesc)
		},
	}
}

// setup loads the configuration, applies flag overrides and starts the logger
func setup(opts *cliOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logPath := filepath.Join(cfg.Output.Dir, "route_recon.log")
	if err := logger.Init(os.Stdout, logPath, opts.verbose); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, opts *cliOptions) error {
	if opts.manifest != "" {
		abs, err := filepath.Abs(opts.manifest)
		if err != nil {
			return fmt.Errorf("failed to resolve manifest: %w", err)
		}
		cfg.Analysis.Manifest = abs
	}
	if opts.parallelism > 0 {
		cfg.Analysis.Parallelism = opts.parallelism
	}
	if len(opts.formats) > 0 {
		cfg.Output.Formats = opts.formats
	}
	if opts.outputDir != "" {
		abs, err := filepath.Abs(opts.outputDir)
		if err != nil {
			return fmt.Errorf("failed to resolve output directory: %w", err)
		}
		cfg.Output.Dir = abs
		return cfg.EnsureOutputDir()
	}
	return nil
}

func printBanner(w io.Writer) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                     ROUTE RECON v1.0.0                    ║
║        Static Route Extraction for Jooby Controllers      ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Fprintln(w, banner)
}
