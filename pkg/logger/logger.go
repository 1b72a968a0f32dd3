package logger

import (
	"fmt"
	"strings"

	"github.com/GlebRadaev/akalimo/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName = "akalimo"
	timeLayout  = "15:04:05 02-01-2006"

	FormatConsole = "console"
	FormatJSON    = "json"
)

// ParseLevel accepts the zap level names plus "warning" as an alias of warn.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return lvl, fmt.Errorf("unsupported log lvl: %q", s)
	}
	if lvl > zapcore.ErrorLevel {
		return lvl, fmt.Errorf("unsupported log lvl: %q", s)
	}
	return lvl, nil
}

func encoderConfig(format string) (zapcore.EncoderConfig, error) {
	ec := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	switch format {
	case "", FormatConsole:
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case FormatJSON:
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	default:
		return ec, fmt.Errorf("unsupported log format: %q", format)
	}
	return ec, nil
}

// Build creates the service logger without installing it globally.
func Build(conf *config.Config) (*zap.Logger, error) {
	lvl, err := ParseLevel(conf.LogLvl)
	if err != nil {
		return nil, err
	}
	ec, err := encoderConfig(conf.LogFormat)
	if err != nil {
		return nil, err
	}
	encoding := conf.LogFormat
	if encoding == "" {
		encoding = FormatConsole
	}

	c := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Development:       lvl == zapcore.DebugLevel,
		DisableStacktrace: encoding == FormatConsole,
		Encoding:          encoding,
		EncoderConfig:     ec,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if encoding == FormatJSON {
		c.InitialFields = map[string]any{"service": serviceName}
	}

	l, err := c.Build()
	if err != nil {
		return nil, fmt.Errorf("unable to create zap logger, error: %w", err)
	}
	return l.Named(serviceName), nil
}

// InitLogger installs the service logger as zap's global one.
func InitLogger(conf *config.Config) error {
	l, err := Build(conf)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l)
	return nil
}
