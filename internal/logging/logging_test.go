package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTextHandler(t *testing.T) {
	defer Level.Set(slog.LevelInfo)
	Level.Set(slog.LevelWarn)

	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, false))
	logger.Info("hidden")
	logger.Warn("entry failed", "id", "roact")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info record to be filtered: %s", out)
	}
	if !strings.Contains(out, "level=warn") || !strings.Contains(out, "id=roact") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestSetupDebugEnv(t *testing.T) {
	defer Level.Set(slog.LevelInfo)
	defer slog.SetDefault(slog.Default())
	t.Setenv(EnvDebug, "1")

	if err := Setup("error"); err != nil {
		t.Fatal(err)
	}
	if Level.Level() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", Level.Level())
	}
	if err := Setup("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
