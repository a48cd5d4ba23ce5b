package cmd

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		debugOn    bool
		warnOn     bool
	}{
		{"default info", "", false, true},
		{"debug", "debug", true, true},
		{"warn", "warn", false, true},
		{"error", "error", false, false},
		{"garbage falls back to info", "loud", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VERDA_LOG_LEVEL", tt.env)

			logger := newLogger()
			ctx := context.Background()

			if got := logger.Handler().Enabled(ctx, slog.LevelDebug); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
			if got := logger.Handler().Enabled(ctx, slog.LevelWarn); got != tt.warnOn {
				t.Errorf("warn enabled = %v, want %v", got, tt.warnOn)
			}
		})
	}
}

func TestVersionCommandRegistered(t *testing.T) {
	for _, name := range []string{"serve", "version"} {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered on root", name)
		}
	}
}
