package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger named after the application. When debug is true, uses
// development config (human-readable, debug level); otherwise uses production config
// (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Named("hydra"), nil
}

// NewNopIfNil returns l, or a no-op logger when l is nil.
func NewNopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
