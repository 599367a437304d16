package main

import (
	"fmt"
	"os"

	"github.com/benvon/smart-dashboard/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "dashboardctl",
		Short: "Operator tool for the Smart Dashboard API",
		Long:  "CLI tool for managing rate limits, persisted sessions and the chat responder",
	}

	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewSessionsCmd())
	rootCmd.AddCommand(commands.NewChatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
