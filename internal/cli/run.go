package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/headline-goat/oconv/internal/adwords"
	"github.com/headline-goat/oconv/internal/uploader"
)

type runOptions struct {
	name        string
	gclid       string
	convTime    string
	value       float64
	valueSet    bool
	interactive bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create an upload conversion and import one offline conversion for it",
	Long: `Create an upload conversion, then import an offline conversion value for a click.

The upload conversion is created with category PAGE_VIEW, a 30 day view-through
lookback window and a 90 day click-through lookback window. Once created it is
visible under Tools and Analysis -> Conversions with "Source = Import".

The Google Click ID must be newer than 30 days and the conversion time must be
later than the click time.

Examples:
  oconv run --name "Sample Conversion" --gclid abc123 --time "20140101 120000" --value 123.45
  oconv run -i`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runOpts.name, "name", "", "name of the upload conversion to create")
	runCmd.Flags().StringVar(&runOpts.gclid, "gclid", "", "Google Click ID of the click the conversion belongs to")
	runCmd.Flags().StringVar(&runOpts.convTime, "time", "", `conversion time, "yyyymmdd hhmmss"`)
	runCmd.Flags().Float64Var(&runOpts.value, "value", 0, "conversion value")
	runCmd.Flags().BoolVarP(&runOpts.interactive, "interactive", "i", false, "prompt for missing values")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	opts := &runOpts
	opts.valueSet = cmd.Flags().Changed("value")
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, uploader.Description)

	if err := opts.complete(); err != nil {
		return err
	}

	return withUploader(func(u *uploader.Uploader) error {
		res, err := u.Run(context.Background(), uploader.Request{
			ConversionName: opts.name,
			GoogleClickID:  opts.gclid,
			ConversionTime: opts.convTime,
			Value:          opts.value,
		})
		if res != nil && res.Definition != nil {
			printDefinition(out, res.Definition)
		}
		if err != nil {
			return fmt.Errorf("an error occurred while running the upload: %w", err)
		}
		printFeed(out, res.Feed)
		return nil
	})
}

// complete fills missing values from prompts, or reports which are missing.
func (o *runOptions) complete() error {
	var err error
	if o.interactive {
		if o.name == "" {
			if o.name, err = promptString("Conversion name", ""); err != nil {
				return err
			}
		}
		if o.gclid == "" {
			if o.gclid, err = promptString("Google Click ID", ""); err != nil {
				return err
			}
		}
		if o.convTime == "" {
			if o.convTime, err = promptString("Conversion time (yyyymmdd hhmmss)", ""); err != nil {
				return err
			}
		}
		if !o.valueSet {
			if o.value, err = promptValue("Conversion value"); err != nil {
				return err
			}
			o.valueSet = true
		}
	}

	var missing []string
	if o.name == "" {
		missing = append(missing, "--name")
	}
	if o.gclid == "" {
		missing = append(missing, "--gclid")
	}
	if o.convTime == "" {
		missing = append(missing, "--time")
	}
	if !o.valueSet {
		missing = append(missing, "--value")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s (or use --interactive)", strings.Join(missing, ", "))
	}
	return nil
}

func printDefinition(w io.Writer, d *adwords.UploadConversion) {
	fmt.Fprintf(w, "New upload conversion type with name = '%s' and id = %d was created.\n", d.Name, d.ID)
}

func printFeed(w io.Writer, f *adwords.OfflineConversionFeed) {
	fmt.Fprintf(w, "Uploaded offline conversion value of %v for Google Click ID = '%s' to '%s'.\n",
		f.ConversionValue, f.GoogleClickID, f.ConversionName)
}
