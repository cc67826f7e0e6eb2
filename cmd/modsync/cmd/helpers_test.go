package cmd

import (
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/bianoble/modsync/internal/settings"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{2684354560, "2.5 GB"},
	}

	for _, tt := range tests {
		got := humanSize(tt.bytes)
		if got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("sodium", 10); got != "sodium" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("Just Enough Items", 10); got != "Just En..." {
		t.Errorf("truncate long = %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"export", "fetch", "check", "prune", "status", "update", "add", "import", "info", "version"} {
		if !slices.Contains(names, want) {
			t.Errorf("command %q not registered", want)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	s := settings.Default()
	s.LogLevel = "warn"
	defer func() { verbose, quiet = false, false }()

	if got := newLogger(&s).GetLevel(); got != log.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
	verbose = true
	if got := newLogger(&s).GetLevel(); got != log.DebugLevel {
		t.Errorf("verbose level = %v, want debug", got)
	}
	verbose, quiet = false, true
	if got := newLogger(&s).GetLevel(); got != log.ErrorLevel {
		t.Errorf("quiet level = %v, want error", got)
	}
}

func TestStateStyle(t *testing.T) {
	if stateStyle("fetched").GetForeground() != successStyle.GetForeground() {
		t.Error("fetched should use the success style")
	}
	if stateStyle("missing").GetForeground() != errorStyle.GetForeground() {
		t.Error("missing should use the error style")
	}
}
