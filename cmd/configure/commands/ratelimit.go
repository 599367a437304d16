package commands

import (
	"fmt"

	"github.com/benvon/smart-dashboard/internal/database"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/spf13/cobra"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update the API rate limit (e.g. 5-S, 100-M). Running servers pick up changes within a minute.",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openPersistentStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			c, err := backend.Ratelimit.Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get ratelimit config: %w", err)
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintln(out, "No rate limit configuration stored. Use 'ratelimit set' to add one.")
				return nil
			}
			fmt.Fprintln(out, "Rate limit configuration:")
			fmt.Fprintf(out, "  Rate: %s\n", c.Rate)
			if !c.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "  Updated: %s\n", c.UpdatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		Long:  "Update the rate limit (e.g. 5-S, 100-M, 1000-H).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := database.NormalizeRate(rate)
			if err != nil {
				return fmt.Errorf("--rate: %w", err)
			}
			backend, err := openPersistentStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			if err := backend.Ratelimit.Set(cmd.Context(), &models.RatelimitConfig{Rate: normalized}); err != nil {
				return fmt.Errorf("set ratelimit config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate limit configuration updated to %s.\n", normalized)
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}
