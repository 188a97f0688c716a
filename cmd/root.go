package cmd

import (
	"fmt"
	"log/slog"
	"os"

	charmlog "charm.land/log/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/leveliz/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leveliz",
	Short: "Student proficiency classifier",
	Long: "Leveliz classifies a student's demonstrated proficiency level " +
		"(1-3, plus a Starter/Explorer/Solver/Champion sublevel) from average " +
		"score, time-to-complete, and grade, using a six-model ensemble.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level, err := charmlog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			Level:           level,
			ReportTimestamp: true,
		})
		slog.SetDefault(slog.New(handler))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(versionCmd)
}
