package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"taskapi/internal/config"
)

const logLevelEnvKey = "TASKAPI_LOG_LEVEL"

type levelSource string

const (
	levelFromFlag    levelSource = "flag"
	levelFromEnv     levelSource = "env"
	levelFromConfig  levelSource = "config"
	levelFromDefault levelSource = "default"
)

// cliLevel is shared by every handler the CLI installs.
var cliLevel slog.LevelVar

// configureLoggerForCLI installs the default text logger. A bad --log-level is
// an error; a bad env or config value falls back to info with a warning for
// the caller to print.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	raw, source := selectedLogLevel(flagLevel, envLevel, configLevel)

	level, err := parseLogLevel(raw)
	if err != nil {
		var bad string
		switch source {
		case levelFromFlag:
			return "", fmt.Errorf("invalid --log-level %q", flagLevel)
		case levelFromEnv:
			bad = fmt.Sprintf("%s=%q", logLevelEnvKey, envLevel)
		default:
			bad = fmt.Sprintf("log_level=%q", configLevel)
		}
		level, _ = parseLogLevel(config.DefaultLogLevel)
		installTextLogger(os.Stderr, level)
		return fmt.Sprintf("warning: invalid %s; defaulting to %s", bad, config.DefaultLogLevel), nil
	}

	installTextLogger(os.Stderr, level)
	return "", nil
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, levelSource) {
	switch {
	case strings.TrimSpace(flagLevel) != "":
		return flagLevel, levelFromFlag
	case strings.TrimSpace(envLevel) != "":
		return envLevel, levelFromEnv
	case strings.TrimSpace(configLevel) != "":
		return configLevel, levelFromConfig
	}
	return "", levelFromDefault
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func installTextLogger(w io.Writer, level slog.Level) {
	cliLevel.Set(level)
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &cliLevel})))
}

// installJSONLogger keeps the configured level and switches to one JSON
// object per record.
func installJSONLogger(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: &cliLevel})))
}
