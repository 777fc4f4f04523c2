package slogobs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Format selects how the Handler renders a record.
type Format string

const (
	// FormatCompact renders one line: time, level, message, then the
	// attributes as a JSON object.
	FormatCompact Format = "compact"

	// FormatPretty renders the header line followed by one indented
	// "key = value" line per attribute.
	FormatPretty Format = "pretty"

	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Environment variables consulted by New when no explicit option is given.
const (
	EnvLogFormat = "LOCALGRAPH_LOG_FORMAT"
	EnvLogLevel  = "LOCALGRAPH_LOG_LEVEL"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat maps a case-insensitive name to a Format, defaulting to compact.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPretty:
		return FormatPretty
	case FormatJSON:
		return FormatJSON
	default:
		return FormatCompact
	}
}

// FormatFromEnv reads LOCALGRAPH_LOG_FORMAT, then LOG_FORMAT.
func FormatFromEnv() Format {
	for _, key := range []string{EnvLogFormat, "LOG_FORMAT"} {
		if v := os.Getenv(key); v != "" {
			return ParseFormat(v)
		}
	}
	return FormatCompact
}

// ParseLevel maps TRACE, DEBUG, INFO, WARN/WARNING and ERROR
// (case-insensitive) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LevelFromEnv reads LOCALGRAPH_LOG_LEVEL, then LOG_LEVEL. Unknown values
// fall back to INFO with a warning on stderr.
func LevelFromEnv() slog.Level {
	for _, key := range []string{EnvLogLevel, "LOG_LEVEL"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		level, err := ParseLevel(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, using INFO\n", err)
		}
		return level
	}
	return slog.LevelInfo
}

func (f Format) String() string {
	return string(f)
}
