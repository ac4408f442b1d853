// Package logging builds the zap loggers used by the bcl commands.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tabmine/bayes-classifier/pkg/config"
)

// Setup creates a pair of zap loggers, one structured and one
// "sugared". Text format uses the development encoder, json the
// production encoder. With a file configured, output goes through a
// rotating lumberjack writer, otherwise to stderr.
func Setup(cfg config.LoggingConfig) (*zap.Logger, *zap.SugaredLogger, error) {
	return setup(cfg, os.Stderr)
}

func setup(cfg config.LoggingConfig, stderr io.Writer) (*zap.Logger, *zap.SugaredLogger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %v", cfg.Level, err)
	}
	level := zap.NewAtomicLevelAt(lvl)

	var sink zapcore.WriteSyncer
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	} else {
		sink = zapcore.AddSync(stderr)
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	case "text", "":
		ec := zap.NewDevelopmentEncoderConfig()
		if cfg.File == "" {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(ec)
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	log := zap.New(zapcore.NewCore(enc, sink, level), zap.AddStacktrace(zapcore.ErrorLevel))
	log.Debug(fmt.Sprintf("Zap %s logging at %s", cfg.Format, level))
	return log, log.Sugar(), nil
}
