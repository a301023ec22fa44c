package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"-4":      slog.LevelDebug,
		"2":       slog.Level(2),
	}
	for raw, want := range cases {
		got, err := parseLogLevel(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %v, got %v", raw, want, got)
		}
	}

	if _, err := parseLogLevel("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSelectedLogLevelPrecedence(t *testing.T) {
	tests := []struct {
		flag, env, cfg string
		wantRaw        string
		wantSource     levelSource
	}{
		{"debug", "error", "warn", "debug", levelFromFlag},
		{"", "warn", "info", "warn", levelFromEnv},
		{" ", "", "error", "error", levelFromConfig},
		{"", "", "", "", levelFromDefault},
	}
	for _, tt := range tests {
		raw, source := selectedLogLevel(tt.flag, tt.env, tt.cfg)
		if raw != tt.wantRaw || source != tt.wantSource {
			t.Fatalf("selectedLogLevel(%q,%q,%q) = %q,%s", tt.flag, tt.env, tt.cfg, raw, source)
		}
	}
}

func TestConfigureLoggerForCLI(t *testing.T) {
	t.Cleanup(func() { installTextLogger(&bytes.Buffer{}, slog.LevelInfo) })

	t.Run("flag wins over broken env", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "nonsense")
		warning, err := configureLoggerForCLI("debug", "")
		if err != nil || warning != "" {
			t.Fatalf("unexpected result %q %v", warning, err)
		}
		if cliLevel.Level() != slog.LevelDebug {
			t.Fatalf("expected debug, got %v", cliLevel.Level())
		}
	})

	t.Run("bad flag is an error", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "")
		if _, err := configureLoggerForCLI("loud", ""); err == nil || !strings.Contains(err.Error(), "--log-level") {
			t.Fatalf("expected flag error, got %v", err)
		}
	})

	t.Run("bad env falls back with warning", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "loud")
		warning, err := configureLoggerForCLI("", "error")
		if err != nil {
			t.Fatalf("configure: %v", err)
		}
		if !strings.Contains(warning, logLevelEnvKey) || !strings.Contains(warning, "defaulting to info") {
			t.Fatalf("unexpected warning %q", warning)
		}
		if cliLevel.Level() != slog.LevelInfo {
			t.Fatalf("expected info fallback, got %v", cliLevel.Level())
		}
	})

	t.Run("bad config falls back with warning", func(t *testing.T) {
		t.Setenv(logLevelEnvKey, "")
		warning, err := configureLoggerForCLI("", "loud")
		if err != nil {
			t.Fatalf("configure: %v", err)
		}
		if !strings.Contains(warning, `log_level="loud"`) {
			t.Fatalf("unexpected warning %q", warning)
		}
	})
}

func TestJSONLoggerKeepsLevel(t *testing.T) {
	var buf bytes.Buffer
	installTextLogger(&buf, slog.LevelWarn)
	installJSONLogger(&buf)
	t.Cleanup(func() { installTextLogger(&bytes.Buffer{}, slog.LevelInfo) })

	slog.Info("dropped")
	slog.Default().With("component", "lambda").Warn("kept", "taskId", "t-1")
	if slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should stay disabled")
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected a single json record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "kept" || record["component"] != "lambda" || record["taskId"] != "t-1" {
		t.Fatalf("unexpected record %#v", record)
	}
}
