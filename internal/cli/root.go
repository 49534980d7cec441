// Package cli implements healthctl, the offline companion to the crop health
// service. It classifies scores, builds reports from scan files and inspects
// thresholds documents without a running server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fasalvaidya/crop-health/internal/health"
)

type options struct {
	thresholds string
	verbose    bool

	logger *slog.Logger
	store  *health.Store
	engine *health.Engine
}

// NewRootCommand builds the healthctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "healthctl",
		Short: "Classify crop scans and compare them against history",
		Long: `healthctl runs the crop health engine locally.

Scores are deficiency scores, given either as 0-1 fractions or 0-100
percentages. Thresholds come from --thresholds (JSON or YAML) or the
built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&opts.thresholds, "thresholds", "t", "", "Thresholds document (JSON or YAML)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log engine decisions to stderr")

	root.AddCommand(
		classifyCommand(opts),
		nutrientCommand(opts),
		trendCommand(opts),
		reportCommand(opts),
		chartCommand(opts),
		historyCommand(opts),
		configCommand(opts),
	)
	return root
}

// Execute runs healthctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *options) setup(stderr io.Writer) error {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var source health.Source
	if o.thresholds != "" {
		if _, err := os.Stat(o.thresholds); err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		source = health.FileSource{Path: o.thresholds}
	}
	o.store = health.NewStore(source, o.logger)
	o.engine = health.NewEngine(o.store, health.WithLogger(o.logger))
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
