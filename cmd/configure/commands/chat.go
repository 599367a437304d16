package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/smart-dashboard/internal/config"
	"github.com/benvon/smart-dashboard/internal/logger"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/services/ai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewChatCmd creates the chat command for exercising the configured responder.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Exercise the chat responder",
	}
	cmd.AddCommand(newChatTestCmd())
	return cmd
}

func newChatTestCmd() *cobra.Command {
	var (
		message  string
		strategy string
		debug    bool
	)
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send one message through the configured responder and print the reply",
		Long:  "Builds the responder from CHAT_STRATEGY and the AI_* settings, sends one message with no history and prints the reply. A provider failure prints the fallback reply and its cause.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message = strings.TrimSpace(message)
			if message == "" {
				return fmt.Errorf("--message cannot be empty")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if strategy != "" {
				cfg.ChatStrategy = strings.ToLower(strategy)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			log := zap.NewNop()
			if debug {
				if log, err = logger.New(cfg.LogFormat, true); err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				defer func() { _ = logger.Sync(log) }()
			}

			responder, err := ai.NewResponder(ai.ResponderConfig{
				Strategy:     models.ChatStrategy(cfg.ChatStrategy),
				Provider:     cfg.AIProvider,
				APIKey:       cfg.AIKey(),
				Model:        cfg.AIModel,
				BaseURL:      cfg.AIBaseURL,
				Timeout:      cfg.AITimeout,
				HistoryTurns: cfg.ChatHistoryTurns,
				DebugMode:    debug,
			}, ai.DefaultRegistry(log), log)
			if err != nil {
				return fmt.Errorf("create chat responder: %w", err)
			}

			reply := responder.Respond(cmd.Context(), message, nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Strategy: %s\n", reply.Strategy)
			if reply.Fallback {
				fmt.Fprintf(out, "Fallback: yes (%v)\n", reply.Cause)
			}
			fmt.Fprintf(out, "Reply:    %s\n", reply.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message to send (required)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Override CHAT_STRATEGY (canned or llm)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log provider requests to stderr")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
