package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/breeze-rmm/app-inventory/internal/collectors"
	"github.com/breeze-rmm/app-inventory/internal/config"
	"github.com/breeze-rmm/app-inventory/internal/logging"
	"github.com/breeze-rmm/app-inventory/internal/report"
	"github.com/breeze-rmm/app-inventory/internal/shell"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:           "app-inventory",
	Short:         "List installed macOS applications",
	Long:          `app-inventory enumerates installed applications using Spotlight metadata (mdls) or application bundle manifests (Info.plist).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var metadataCmd = &cobra.Command{
	Use:   "metadata [directory]",
	Short: "Inventory a directory with ls and mdls",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		directory := cfg.MetadataDirectory
		if len(args) == 1 {
			directory = args[0]
		}

		ctx := logging.NewContext(cmd.Context(), logging.L("metadata"))
		collector := collectors.NewMetadataCollector(
			shell.NewExecRunner(cfg.CommandTimeout()),
			collectors.WithListCommand(cfg.ListCommand),
			collectors.WithMetadataCommand(cfg.MetadataCommand),
		)

		apps, err := collector.Collect(ctx, directory)
		if err != nil {
			return fmt.Errorf("metadata inventory of %s: %w", directory, err)
		}

		return report.Encode(cmd.OutOrStdout(), report.New(report.SourceMetadata, apps), cfg.OutputFormat)
	},
}

var bundlesCmd = &cobra.Command{
	Use:   "bundles",
	Short: "Inventory application bundles in /Applications and ~/Applications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		ctx := logging.NewContext(cmd.Context(), logging.L("bundles"))
		apps := collectors.NewBundleCollector(cfg.BundleRoots(), cfg.MaxManifestBytes).Collect(ctx)

		return report.Encode(cmd.OutOrStdout(), report.New(report.SourceBundles, apps), cfg.OutputFormat)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "app-inventory v%s\n", version)
	},
}

// logCloser is closed after the command finishes when log_file is set.
var logCloser io.Closer

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is app-inventory.yaml in the Breeze config directory)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format: json or yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")

	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(bundlesCmd)
	rootCmd.AddCommand(versionCmd)
}

// newViper returns a viper instance carrying the persistent flag overrides.
func newViper() *viper.Viper {
	v := viper.New()
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("output_format", flags.Lookup("format"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log_format", flags.Lookup("log-format"))
	return v
}

// setup loads and validates config and initializes logging.
func setup() (*config.Config, error) {
	cfg, err := config.LoadWith(newViper(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		out = f
		logCloser = f
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, out)

	// Validation problems are corrected in place and logged.
	cfg.Validate()

	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
