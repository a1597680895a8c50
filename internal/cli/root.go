package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/headline-goat/oconv/internal/config"
)

var (
	dbPath     string
	endpoint   string
	apiVersion string
	timeout    time.Duration
	verbose    bool
	noJournal  bool

	cfg    = config.Load()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "oconv",
	Short: "oconv - import offline conversions for ad clicks",
	Long: `oconv creates upload conversions and imports offline conversion values
for specific clicks through ConversionTrackerService and OfflineConversionFeedService.

To get the Google Click ID for a click, run CLICK_PERFORMANCE_REPORT.
Use 'oconv sandbox' to run both services locally.`,
	SilenceUsage:     true,
	PersistentPreRun: setupLogger,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "journal database path")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", cfg.Endpoint, "API endpoint the services live under")
	rootCmd.PersistentFlags().StringVar(&apiVersion, "api-version", cfg.APIVersion, "API version")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", cfg.Timeout, "timeout for each service call")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "log SOAP traffic")
	rootCmd.PersistentFlags().BoolVar(&noJournal, "no-journal", false, "do not record uploads in the local journal")
}

func setupLogger(cmd *cobra.Command, args []string) {
	level := cfg.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
