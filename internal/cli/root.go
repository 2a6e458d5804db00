package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"EditaisScanner/internal/config"
)

// Version is stamped at build time with -ldflags "-X EditaisScanner/internal/cli.Version=...".
var Version = "dev"

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "editais",
	Short: "Editais scanner - finds new TI notices on the SENAI listing",
	Long: `Editais scanner watches the SENAI notice listing, keeps the notices
for the configured locality whose title or PDF mentions a TI course, and
reports each one only once.

Configuration hierarchy (highest to lowest priority):
1. CLI flags (--config, --log-level)
2. Environment variables (EDITAIS_CONFIG, EDITAIS_LOG_LEVEL, TELEGRAM_BOT_TOKEN, ...)
3. Config file (YAML)
4. Defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "editais %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig maps EDITAIS_* environment variables onto the global flags.
func initConfig() {
	viper.SetEnvPrefix("EDITAIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig resolves the config file, applies overrides and validates.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return config.Config{}, err
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}
