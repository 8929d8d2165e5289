// Package cli provides the command-line interface for the decoder.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/urieli/jochre-sub004/config"
	"github.com/urieli/jochre-sub004/observability"
)

// Version is set at build time.
var Version = "0.1.0"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg     config.Config
	runID   string
	slog    *slog.Logger
	logger  observability.Logger
	cleanup func() error
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "jochre",
		Short: "Decode segmented Hebrew and Yiddish page scans",
		Long: `jochre turns a segmented page (paragraphs, rows, word groups and ink
shapes, described in JSON) into text. Letters are guessed by a JavaScript
classifier or by Tesseract; touching glyphs can be split by a second
classifier, and a word-frequency lexicon resolves words broken across rows.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.cleanup != nil {
				if err := a.cleanup(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
				}
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newDecodeCmd(a))
	root.AddCommand(newSplitCmd(a))
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel()
	if a.verbose {
		level = slog.LevelDebug
	}
	logger, cleanup := config.SetupLogger(cfg.Logging.File, level)

	a.cfg = cfg
	a.runID = uuid.NewString()
	a.slog = logger.With("run", a.runID)
	a.logger = observability.NewSlogLogger(a.slog)
	a.cleanup = cleanup
	return nil
}
