package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fasalvaidya/crop-health/internal/health"
)

func configCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect thresholds documents",
	}
	cmd.AddCommand(configShowCommand(opts), configValidateCommand())
	return cmd
}

func configShowCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the thresholds in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.store.Get()
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), cfg)
			case "yaml", "yml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	return cmd
}

func configValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a thresholds document without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := health.FileSource{Path: args[0]}.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (version %s)\n", args[0], cfg.Version)
			return nil
		},
	}
}
