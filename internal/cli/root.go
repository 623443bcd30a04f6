package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	storeFlag  string
	logLevel   string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "eduquiz",
		Short:         "Offline-first classroom quiz engine with timed questions and rankings",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&storeFlag, "store", "", "storage backend: file, memory, redis or postgres (overrides config)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	cmd.AddCommand(NewStartCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(newLoginCmd(), newLogoutCmd(), newWhoamiCmd(), newProfileCmd())
	cmd.AddCommand(newThemesCmd(), newQuizzesCmd(), newPlayCmd())
	cmd.AddCommand(newRankingsCmd(), newStatsCmd())
	cmd.AddCommand(newThemeCmd(), newQuizCmd(), newQuestionCmd(), newDeleteCmd())
	cmd.AddCommand(newExportCmd(), newImportCmd(), newClearResultsCmd())
	return cmd
}

// setupLogging applies the flag level now; the config level is applied once
// the config is loaded, unless the flag was given.
func setupLogging(level string) error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	return nil
}
