package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"EditaisScanner/internal/app"
	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/logging"
)

var (
	publish bool
	asJSON  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one search and print the newly accepted notices",
	Long: `Run performs a single search: fetch the listing, keep the notices for the
configured locality that are TI-related, persist them and print the ones
never seen before.

Example:
  editais run
  editais run --config editais.yaml --publish
  editais run --json`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&publish, "publish", false, "also deliver new notices to the configured Telegram chat and Kafka topic")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "print notices as JSON")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			logger.Warn("close application", "error", closeErr)
		}
	}()

	notices, err := application.RunOnce(ctx, publish)
	if err != nil && notices == nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if printErr := printNotices(cmd.OutOrStdout(), notices, asJSON); printErr != nil {
		return printErr
	}
	return err
}

func printNotices(w io.Writer, notices []domain.Notice, jsonOut bool) error {
	if jsonOut {
		if notices == nil {
			notices = []domain.Notice{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(notices)
	}

	if len(notices) == 0 {
		_, err := fmt.Fprintln(w, "Nenhum edital novo encontrado.")
		return err
	}
	for _, n := range notices {
		if _, err := fmt.Fprintf(w, "📄 %s\n🔗 %s\n\n", n.Title, n.Link); err != nil {
			return err
		}
	}
	return nil
}
