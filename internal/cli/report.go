package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fasalvaidya/crop-health/internal/db"
	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/models"
	"github.com/fasalvaidya/crop-health/internal/repository"
)

func readScan(path string) (*models.Scan, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scan models.Scan
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("parse scan %s: %w", path, err)
	}
	return &scan, nil
}

func readScans(path string) ([]models.Scan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scans []models.Scan
	if err := json.Unmarshal(data, &scans); err != nil {
		return nil, fmt.Errorf("parse scans %s: %w", path, err)
	}
	return scans, nil
}

func reportCommand(opts *options) *cobra.Command {
	var (
		scanPath, previousPath, baselinePath string
		cropID                               int
		preview                              bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a health report for a scan file",
		Long: `Build the full health report for a scan stored as JSON, optionally
comparing it against previous and baseline scans. --preview prints the
condensed preview instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scan, err := readScan(scanPath)
			if err != nil {
				return err
			}
			previous, err := readScan(previousPath)
			if err != nil {
				return err
			}
			baseline, err := readScan(baselinePath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("crop") {
				scan.CropID = cropID
			}
			crop := models.CropOrDefault(scan.CropID)

			if preview {
				return writeJSON(cmd.OutOrStdout(), opts.engine.BuildPreview(scan, crop, previous, baseline, nil))
			}
			return writeJSON(cmd.OutOrStdout(), opts.engine.GenerateReportData(scan, crop, previous, baseline, nil))
		},
	}

	cmd.Flags().StringVar(&scanPath, "scan", "", "Current scan (JSON)")
	cmd.Flags().StringVar(&previousPath, "previous", "", "Previous scan of the same crop (JSON)")
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "First scan of the same crop (JSON)")
	cmd.Flags().IntVar(&cropID, "crop", 0, "Override the scan's crop id")
	cmd.Flags().BoolVar(&preview, "preview", false, "Print the condensed preview")
	_ = cmd.MarkFlagRequired("scan")
	return cmd
}

func chartCommand(opts *options) *cobra.Command {
	var (
		scansPath string
		chartType string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Generate chart data from a JSON array of scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			graphType := health.GraphType(chartType)
			switch graphType {
			case health.GraphLine, health.GraphBar, health.GraphRadar:
			default:
				return fmt.Errorf("unknown chart type %q (line, bar or radar)", chartType)
			}

			scans, err := readScans(scansPath)
			if err != nil {
				return err
			}
			chart := opts.engine.GenerateGraphData(scans, graphType)
			if err := writeJSON(cmd.OutOrStdout(), chart); err != nil {
				return err
			}
			if chart.Error != "" {
				return fmt.Errorf("chart: %s", chart.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scansPath, "scans", "", "Scans in chronological order (JSON array)")
	cmd.Flags().StringVar(&chartType, "type", string(health.GraphLine), "Chart type: line, bar or radar")
	_ = cmd.MarkFlagRequired("scans")
	return cmd
}

func historyCommand(opts *options) *cobra.Command {
	var (
		dbPath string
		farmer string
		cropID int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a farmer's scans from a legacy SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			farmerID, err := uuid.Parse(farmer)
			if err != nil {
				return fmt.Errorf("invalid farmer id %q", farmer)
			}
			if limit < 1 {
				return fmt.Errorf("limit must be positive")
			}

			conn, err := db.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			var crop *int
			if cmd.Flags().Changed("crop") {
				crop = &cropID
			}
			scans, err := repository.NewSQLiteStore(conn).ListRecent(cmd.Context(), farmerID, crop, limit)
			if err != nil {
				return fmt.Errorf("list scans: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), opts.engine.BuildHistory(scans))
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/fasalvaidya.db", "SQLite scan database")
	cmd.Flags().StringVar(&farmer, "farmer", "", "Farmer id")
	cmd.Flags().IntVar(&cropID, "crop", 0, "Only scans of this crop")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum scans to list")
	_ = cmd.MarkFlagRequired("farmer")
	return cmd
}
