package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/headline-goat/oconv/internal/store"
)

var (
	historyName        string
	historyDefinitions bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journaled definitions and uploads",
	Long: `Show what was sent from this machine, as recorded in the local journal.

Examples:
  oconv history
  oconv history --name "Sample Conversion"
  oconv history --definitions`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyName, "name", "", "only show uploads for this conversion")
	historyCmd.Flags().BoolVar(&historyDefinitions, "definitions", false, "list upload conversions instead of uploads")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		if historyDefinitions {
			return listDefinitions(cmd, s)
		}
		return listUploads(cmd, s, historyName)
	})
}

func listDefinitions(cmd *cobra.Command, s store.Store) error {
	defs, err := s.ListDefinitions(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list definitions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(defs) == 0 {
		fmt.Fprintln(out, "No upload conversions found. Create one with: oconv define <name>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tCATEGORY\tVIEW-THROUGH\tCLICK-THROUGH\tCREATED")
	for _, d := range defs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%dd\t%dd\t%s\n",
			d.Name, d.RemoteID, d.Category,
			d.ViewthroughLookbackWindow, d.CtcLookbackWindow,
			d.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func listUploads(cmd *cobra.Command, s store.Store, name string) error {
	ctx := context.Background()

	uploads, err := s.ListUploads(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list uploads: %w", err)
	}

	out := cmd.OutOrStdout()
	if name != "" {
		def, err := s.GetDefinition(ctx, name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Fprintf(out, "Upload conversion '%s' was not created from this journal.\n\n", name)
		case err != nil:
			return fmt.Errorf("failed to get definition: %w", err)
		default:
			fmt.Fprintf(out, "Upload conversion '%s' (id %d, %s, %dd view-through, %dd click-through)\n\n",
				def.Name, def.RemoteID, def.Category, def.ViewthroughLookbackWindow, def.CtcLookbackWindow)
		}
	}

	if len(uploads) == 0 {
		fmt.Fprintln(out, "No uploads found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONVERSION\tGCLID\tTIME\tVALUE\tSTATUS")
	for _, u := range uploads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
			u.ConversionName, u.GoogleClickID, u.ConversionTime, u.ConversionValue, u.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats, err := s.GetUploadStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get upload stats: %w", err)
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONVERSION\tUPLOADED\tFAILED\tTOTAL VALUE")
	for _, st := range stats {
		if name != "" && st.ConversionName != name {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\n", st.ConversionName, st.Uploaded, st.Failed, st.TotalValue)
	}
	return w.Flush()
}
