package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/jchantrell/ssoformats/internal/config"
	"github.com/jchantrell/ssoformats/internal/workspace"
)

var (
	cfg     *config.Config
	cfgFile string

	valueMode  string
	storage    string
	dbPath     string
	outputDir  string
	vfMagic    string
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "ssoformats",
	Short: "Decode localized string tables and asset manifests",
	Long: `ssoformats decodes the two binary containers shipped with the game:
the localized string table ("text" format) and the packaged-asset manifest
("VF" format).

Files can be inspected as tables or JSON, manifests can be edited and
rewritten, and any number of files can be exported into a queryable SQLite
database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("value-mode") {
			cfg.ValueMode = valueMode
		}
		if cmd.Flags().Changed("storage") {
			cfg.Storage = storage
		}
		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.OutputDir = outputDir
		}
		if cmd.Flags().Changed("vf-magic") {
			cfg.VFMagic = vfMagic
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		slog.SetDefault(slog.New(handler))

		slog.Debug("Configuration",
			"value_mode", cfg.ValueMode,
			"storage", cfg.Storage,
			"database", cfg.Database,
			"output_dir", cfg.OutputDir,
			"vf_magic", cfg.VFMagic,
			"max_entries", cfg.MaxEntries,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

// hostWorkspace returns the workspace commands read and write through.
func hostWorkspace() *workspace.Workspace {
	return workspace.OS(cfg.OutputDir)
}

// progressEnabled reports whether a progress bar would interleave with
// other stderr output.
func progressEnabled() bool {
	return !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ssoformats.yaml in home or pwd)")
	rootCmd.PersistentFlags().StringVar(&valueMode, "value-mode", "", "string table value mode (narrow, raw)")
	rootCmd.PersistentFlags().StringVar(&storage, "storage", "", "string storage (heap, inline)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "database file path")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "directory for JSON dumps")
	rootCmd.PersistentFlags().StringVar(&vfMagic, "vf-magic", "", "four byte magic identifying manifests")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
