package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/agentstation/gaze/pkg/constants"
	"github.com/rs/zerolog"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level written.
	Level string

	// Format is json, console or auto.
	Format string

	// Output is stderr, stdout, discard or a file path.
	Output string

	// TimeFormat is kitchen, rfc3339, unix or a Go layout.
	TimeFormat string

	NoColor   bool
	AddCaller bool

	// Fields are attached to every event.
	Fields map[string]any
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
		Fields:     make(map[string]any),
	}
}

// NewLoggerFromConfig builds a logger from cfg. A nil cfg means DefaultConfig.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp().Logger()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	if len(cfg.Fields) > 0 {
		lc := logger.With()
		for k, v := range cfg.Fields {
			lc = addField(lc, k, v)
		}
		logger = lc.Logger()
	}
	return logger
}

// Configure replaces the default logger with one built from cfg.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// ConfigureFromEnv configures the default logger from GAZE_LOG_* variables.
func ConfigureFromEnv() {
	Configure(&Config{
		Level:      envOr("GAZE_LOG_LEVEL", "info"),
		Format:     envOr("GAZE_LOG_FORMAT", "auto"),
		Output:     envOr("GAZE_LOG_OUTPUT", "stderr"),
		TimeFormat: envOr("GAZE_LOG_TIME_FORMAT", "kitchen"),
		NoColor:    os.Getenv("NO_COLOR") != "",
		AddCaller:  os.Getenv("GAZE_LOG_CALLER") == "true",
		Fields:     parseFields(os.Getenv("GAZE_LOG_FIELDS")),
	})
}

func writerFor(cfg *Config) io.Writer {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "auto" {
		format = "json"
		if out == os.Stderr && stderrIsTerminal() {
			format = "console"
		}
	}

	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: timeLayout(cfg.TimeFormat),
			NoColor:    cfg.NoColor,
		}
	}
	return out
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

func timeLayout(format string) string {
	switch strings.ToLower(format) {
	case "kitchen", "":
		return time.Kitchen
	case "rfc3339":
		return time.RFC3339
	case "rfc3339nano":
		return time.RFC3339Nano
	case "unix", "epoch":
		return ""
	}
	if strings.Contains(format, "2006") || strings.Contains(format, "15:04") {
		return format
	}
	return time.Kitchen
}

// parseFields parses "k=v,k2=v2".
func parseFields(raw string) map[string]any {
	fields := make(map[string]any)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return fields
}

func addField(lc zerolog.Context, key string, value any) zerolog.Context {
	switch v := value.(type) {
	case string:
		return lc.Str(key, v)
	case int:
		return lc.Int(key, v)
	case int64:
		return lc.Int64(key, v)
	case float64:
		return lc.Float64(key, v)
	case bool:
		return lc.Bool(key, v)
	case time.Duration:
		return lc.Dur(key, v)
	case time.Time:
		return lc.Time(key, v)
	case error:
		if key == "error" || key == "err" {
			return lc.Err(v)
		}
		return lc.Str(key, v.Error())
	default:
		return lc.Interface(key, v)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
