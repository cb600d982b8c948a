// Package logging builds the diagnostics logger. Output always goes to
// stderr because stdout carries the MCP stream.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/1broseidon/devdash-mcp/internal/config"
)

// New returns a logger for cfg writing to stderr. An empty format picks the
// console encoder when stderr is a terminal and JSON otherwise.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	return build(cfg, zapcore.Lock(os.Stderr), term.IsTerminal(int(os.Stderr.Fd())))
}

func build(cfg config.LoggingConfig, out zapcore.WriteSyncer, tty bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		enc = consoleEncoder(encCfg, tty)
	case "":
		if tty {
			enc = consoleEncoder(encCfg, true)
		} else {
			enc = zapcore.NewJSONEncoder(encCfg)
		}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()).Named("devdash-mcp"), nil
}

func consoleEncoder(encCfg zapcore.EncoderConfig, color bool) zapcore.Encoder {
	if color {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encCfg)
}
