package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app"
)

var (
	version = "0.1.0"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rootCmd := &cobra.Command{
		Use:   "jirachat",
		Short: "Conversational question answering over Jira data",
		Long: `JiraChat answers natural-language questions about a team's Jira projects.
It routes each question between live JQL queries and semantic search over a
per-tenant vector index, then synthesizes a markdown answer.`,
		Version: version,
	}

	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("JiraChat starting")
			if err := app.Run(ctx); err != nil {
				slog.Error("server failed", slog.Any("error", err))
				return err
			}
			slog.Info("JiraChat stopped")
			return nil
		},
	}
}
