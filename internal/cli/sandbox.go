package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/headline-goat/oconv/internal/adwords"
	"github.com/headline-goat/oconv/internal/sandbox"
)

var (
	sandboxPort   int
	sandboxClicks []string
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Serve both conversion services locally",
	Long: `Serve ConversionTrackerService and OfflineConversionFeedService from memory.

Point other commands at it with --endpoint http://localhost:<port>. Clicks given
with --click are checked for ordering and age; other click ids are accepted.

Examples:
  oconv sandbox
  oconv sandbox --port 9090 --click "abc123@20140101 080000"`,
	Args: cobra.NoArgs,
	RunE: runSandbox,
}

func init() {
	sandboxCmd.Flags().IntVarP(&sandboxPort, "port", "p", cfg.Port, "port to listen on")
	sandboxCmd.Flags().StringArrayVar(&sandboxClicks, "click", nil, `register a click as "gclid@yyyymmdd hhmmss" (repeatable)`)
	rootCmd.AddCommand(sandboxCmd)
}

func runSandbox(cmd *cobra.Command, args []string) error {
	srv := sandbox.New(sandboxPort, sandbox.WithLogger(logger))
	for _, c := range sandboxClicks {
		gclid, at, err := parseClick(c)
		if err != nil {
			return err
		}
		srv.RegisterClick(gclid, at)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sandbox running at http://localhost:%d\n", sandboxPort)
	return srv.Start()
}

func parseClick(s string) (string, time.Time, error) {
	gclid, ts, ok := strings.Cut(s, "@")
	if !ok || strings.TrimSpace(gclid) == "" {
		return "", time.Time{}, fmt.Errorf("invalid click %q: want gclid@yyyymmdd hhmmss", s)
	}
	at, err := adwords.ParseConversionTime(strings.TrimSpace(ts))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid click %q: %w", s, err)
	}
	return strings.TrimSpace(gclid), at, nil
}
