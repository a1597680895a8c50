package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headline-goat/oconv/internal/batch"
	"github.com/headline-goat/oconv/internal/uploader"
)

var (
	pushGclid string
	pushTime  string
	pushValue float64
	pushFile  string
)

var pushCmd = &cobra.Command{
	Use:   "push [conversion-name]",
	Short: "Upload offline conversions to an existing upload conversion",
	Long: `Upload offline conversions to an upload conversion created earlier.

A single conversion is given with --gclid, --time and --value. A batch is read
from --file (CSV or JSON, by extension) and sent in one call: either every row
is accepted or none is. Rows without a conversion name use the name argument.

Examples:
  oconv push "Sample Conversion" --gclid abc123 --time "20140101 120000" --value 123.45
  oconv push "Sample Conversion" --file conversions.csv
  oconv push --file conversions.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVar(&pushGclid, "gclid", "", "Google Click ID")
	pushCmd.Flags().StringVar(&pushTime, "time", "", `conversion time, "yyyymmdd hhmmss"`)
	pushCmd.Flags().Float64Var(&pushValue, "value", 0, "conversion value")
	pushCmd.Flags().StringVarP(&pushFile, "file", "f", "", "CSV or JSON file of conversions")
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) == 1 {
		name = args[0]
	}
	valueSet := cmd.Flags().Changed("value")

	var conversions []uploader.Conversion
	if pushFile != "" {
		if pushGclid != "" || pushTime != "" || valueSet {
			return fmt.Errorf("--file cannot be combined with --gclid, --time or --value")
		}
		var err error
		conversions, err = batch.ReadFile(pushFile)
		if err != nil {
			return err
		}
		for i := range conversions {
			if conversions[i].ConversionName == "" {
				if name == "" {
					return fmt.Errorf("row %d has no conversion name and none was given", i+1)
				}
				conversions[i].ConversionName = name
			}
		}
	} else {
		if name == "" {
			return fmt.Errorf("a conversion name is required")
		}
		if pushGclid == "" || pushTime == "" || !valueSet {
			return fmt.Errorf("--gclid, --time and --value are required without --file")
		}
		conversions = []uploader.Conversion{{
			ConversionName: name,
			GoogleClickID:  pushGclid,
			ConversionTime: pushTime,
			Value:          pushValue,
		}}
	}

	return withUploader(func(u *uploader.Uploader) error {
		feeds, err := u.UploadOfflineConversions(context.Background(), conversions)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i := range feeds {
			printFeed(out, &feeds[i])
		}
		return nil
	})
}
