package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"certdash/analytics"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and query the analytics API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config ok (%s)\n", configPath)

		timeout := cfg.API.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		ov, err := analytics.NewClient(cfg.API.BaseURL, cfg.API.Timeout).Overview(ctx, "")
		if err != nil {
			return fmt.Errorf("reach %s: %w", cfg.API.BaseURL, err)
		}
		fmt.Fprintf(out, "api ok (%s): %d certificates, %d active, %d expired\n",
			cfg.API.BaseURL, ov.Total, ov.Active, ov.Expired)
		return nil
	},
}
