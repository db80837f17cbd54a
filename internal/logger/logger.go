package logger

import (
	"io"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/rs/zerolog"
)

// Logger represents the main logger with configuration
type Logger struct {
	zerolog zerolog.Logger
	config  LoggerConfig
	closers []io.Closer
}

// GetZerolog returns the underlying zerolog instance
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// GetConfig returns the effective configuration
func (l *Logger) GetConfig() LoggerConfig {
	return l.config
}

// Close releases file outputs. Safe to call more than once.
func (l *Logger) Close() error {
	var collector errorwrapper.ErrorCollector
	for _, c := range l.closers {
		collector.Add(c.Close())
	}
	l.closers = nil
	return collector.Error()
}

// NewWithSessionID builds a logger whose entries carry session_id
func NewWithSessionID(cfg config.LogConfig, sessionID string) (*Logger, error) {
	return NewLoggerBuilder().
		WithConfig(cfg).
		WithSessionID(sessionID).
		Build()
}
