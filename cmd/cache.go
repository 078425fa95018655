package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/answers/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Response cache maintenance",
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete all expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cmd.Context(), cfg.Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.SweepExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("removed %d expired entries\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheSweepCmd)
	rootCmd.AddCommand(cacheCmd)
}
