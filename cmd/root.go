package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/answers/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "answers",
	Short: "Retrieval-augmented answer pipeline",
	Long:  "Fans a question out to web, vector, and graph retrieval lanes, fuses the evidence, generates a draft with cost-aware model fallback, then verifies and cites every sentence.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
