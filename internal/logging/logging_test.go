package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"info", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"trace", zerolog.TraceLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"  DEBUG  ", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitWritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "fleetbrief.log")

	logger := Init(Config{Format: "json", Level: "info", Component: "test", FilePath: path})
	logger.Info().Str("stage", "fetch").Msg("run started")
	Shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file at %s: %v", path, err)
	}
	if !strings.Contains(string(data), `"stage":"fetch"`) {
		t.Fatalf("log file missing structured field: %s", data)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Fatalf("log file missing component field: %s", data)
	}
}

func TestInitAppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.log")

	logger := Init(Config{Format: "json", FilePath: path})
	logger.Info().Msg("first run")
	Shutdown()

	logger = Init(Config{Format: "json", FilePath: path})
	logger.Info().Msg("second run")
	Shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "first run") || !strings.Contains(string(data), "second run") {
		t.Fatalf("expected both runs appended, got: %s", data)
	}
}

func TestInitWithoutFilePathSkipsFile(t *testing.T) {
	Init(Config{Format: "json", Level: "info"})
	defer Shutdown()

	if fileCloser != nil {
		t.Fatal("no file writer expected when FilePath is empty")
	}
}
