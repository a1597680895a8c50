package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/headline-goat/oconv/internal/store"
)

var (
	exportFormat string
	exportName   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journaled uploads",
	Long: `Export journaled uploads in CSV or JSON format.

The CSV columns match what 'oconv push --file' reads, so failed rows can be
filtered and pushed again.

Examples:
  oconv export --format csv > uploads.csv
  oconv export --name "Sample Conversion" --format json > uploads.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	exportCmd.Flags().StringVar(&exportName, "name", "", "only export uploads for this conversion")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		uploads, err := s.ListUploads(context.Background(), exportName)
		if err != nil {
			return fmt.Errorf("failed to get uploads: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(cmd.OutOrStdout(), uploads)
		}
		return exportJSON(cmd.OutOrStdout(), uploads)
	})
}

func exportCSV(out io.Writer, uploads []*store.Upload) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"conversion_name", "google_click_id", "conversion_time", "conversion_value", "status", "error", "run_id", "created_at"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, u := range uploads {
		row := []string{
			u.ConversionName,
			u.GoogleClickID,
			u.ConversionTime,
			strconv.FormatFloat(u.ConversionValue, 'f', -1, 64),
			string(u.Status),
			u.Error,
			u.RunID,
			strconv.FormatInt(u.CreatedAt.Unix(), 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

type jsonExport struct {
	Uploads []jsonUpload `json:"uploads"`
}

type jsonUpload struct {
	ConversionName  string  `json:"conversionName"`
	GoogleClickID   string  `json:"googleClickId"`
	ConversionTime  string  `json:"conversionTime"`
	ConversionValue float64 `json:"conversionValue"`
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
	RunID           string  `json:"runId"`
	Timestamp       int64   `json:"timestamp"`
}

func exportJSON(out io.Writer, uploads []*store.Upload) error {
	export := jsonExport{
		Uploads: make([]jsonUpload, len(uploads)),
	}

	for i, u := range uploads {
		export.Uploads[i] = jsonUpload{
			ConversionName:  u.ConversionName,
			GoogleClickID:   u.GoogleClickID,
			ConversionTime:  u.ConversionTime,
			ConversionValue: u.ConversionValue,
			Status:          string(u.Status),
			Error:           u.Error,
			RunID:           u.RunID,
			Timestamp:       u.CreatedAt.Unix(),
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
