// Package logging constructs the proxy's single structured logger.
// Grounded on caddyserver-caddy's use of go.uber.org/zap for all runtime
// logging; the proxy has no module system to route logs through, so this
// is a direct zap.Config construction rather than caddy's log-sink
// abstraction.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap.Logger at the given level
// ("debug", "info", "warn", "error"). An unrecognised level falls back to
// "info" rather than failing startup over an operational flag typo.
func New(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
