package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crease/internal/foldcache"
)

var cleanCmd = &cobra.Command{
	Use:          "clean",
	Short:        "Drop the on-disk result cache",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := foldcache.Open("crease")
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("drop cache: %w", err)
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "cache dropped")
		}
		return nil
	},
}
