package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewSessionsCmd creates the sessions command for inspecting persisted dashboards.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect persisted dashboard sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsDeleteCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openPersistentStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			infos, err := backend.State.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(out, "No persisted sessions.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tCREATED\tUPDATED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID,
					info.CreatedAt.UTC().Format("2006-01-02 15:04"),
					info.UpdatedAt.UTC().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Summarize one persisted session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id %q: %w", args[0], err)
			}
			backend, err := openPersistentStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			doc, err := backend.State.Load(cmd.Context(), id)
			if errors.Is(err, session.ErrNotFound) {
				return fmt.Errorf("session %s not found", id)
			}
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}

			pendingPayments, undelivered := 0, 0
			for _, p := range doc.Payments {
				if !p.Paid {
					pendingPayments++
				}
			}
			for _, r := range doc.Reminders {
				if !r.Delivered {
					undelivered++
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s (saved %s)\n", id, doc.SavedAt.UTC().Format("2006-01-02 15:04:05 MST"))
			fmt.Fprintf(out, "  Tasks:         %d\n", len(doc.Tasks))
			fmt.Fprintf(out, "  Payments:      %d (%d unpaid)\n", len(doc.Payments), pendingPayments)
			fmt.Fprintf(out, "  Reminders:     %d (%d undelivered)\n", len(doc.Reminders), undelivered)
			fmt.Fprintf(out, "  Notifications: %d\n", len(doc.Notifications))
			fmt.Fprintf(out, "  Chat turns:    %d\n", len(doc.Chat))
			return nil
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a persisted session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id %q: %w", args[0], err)
			}
			backend, err := openPersistentStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			err = backend.State.Delete(cmd.Context(), id)
			if errors.Is(err, session.ErrNotFound) {
				return fmt.Errorf("session %s not found", id)
			}
			if err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted.\n", id)
			return nil
		},
	}
}
