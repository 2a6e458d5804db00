package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"EditaisScanner/internal/app"
	"EditaisScanner/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, the HTTP API and the recurring search",
	Long: `Serve keeps running until SIGINT or SIGTERM. Each front-end starts only
when configured:
- Telegram bot: notifications.telegram.botToken (or TELEGRAM_BOT_TOKEN / BOT_TOKEN)
- HTTP API: http.bindAddr
- Global recurring search: scheduler.interval > 0, delivering to the default
  chat (notifications.telegram.chatId) and Kafka (notifications.kafka.brokers)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		logger.Info("editais scanner serving", "version", Version)
		return application.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
