package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func parseScore(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q", arg)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("score %v out of range 0-100", v)
	}
	return v, nil
}

func classifyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <overall-health-score>",
		Short: "Classify an overall health score into a tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := parseScore(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts.engine.ClassifyHealth(score))
		},
	}
}

func nutrientCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "nutrient <deficiency-score>",
		Short: "Classify one nutrient's deficiency score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := parseScore(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts.engine.ClassifyNutrient(score))
		},
	}
}

func trendCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trend <current> <previous>",
		Short: "Compare two values using the configured epsilon",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid current value %q", args[0])
			}
			previous, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid previous value %q", args[1])
			}
			return writeJSON(cmd.OutOrStdout(), opts.engine.CalculateTrend(current, previous))
		},
	}
}
