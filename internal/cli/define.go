package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/headline-goat/oconv/internal/uploader"
)

var defineCmd = &cobra.Command{
	Use:   "define <name>",
	Short: "Create an upload conversion",
	Long: `Create an upload conversion (category PAGE_VIEW, 30 day view-through and
90 day click-through lookback windows) without uploading anything to it.

Examples:
  oconv define "Sample Conversion"`,
	Args: cobra.ExactArgs(1),
	RunE: runDefine,
}

func init() {
	rootCmd.AddCommand(defineCmd)
}

func runDefine(cmd *cobra.Command, args []string) error {
	return withUploader(func(u *uploader.Uploader) error {
		def, err := u.DefineUploadConversion(context.Background(), args[0])
		if err != nil {
			return err
		}
		printDefinition(cmd.OutOrStdout(), def)
		return nil
	})
}
