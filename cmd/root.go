// Package cmd contains the CLI commands.
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verda0/verda/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "verda",
	Short: "Verda - sustainability coaching backend",
	Long: `Verda is the backend for a sustainability coaching assistant.

It serves RAG-grounded chat replies, tracks per-user carbon savings with a
leaderboard, picks a shared daily challenge, and manages habit reminders.

Run "verda serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. VERDA_LOG_LEVEL (debug/info/warn/error)
// and VERDA_LOG_JSON=1 tune it without touching the config file.
func newLogger() log.Logger {
	var level slog.Level
	switch strings.ToLower(os.Getenv("VERDA_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return log.New(log.Config{
		Level: level,
		JSON:  os.Getenv("VERDA_LOG_JSON") == "1",
	})
}
