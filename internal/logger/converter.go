package logger

import (
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/rs/zerolog"
)

// ConvertConfig maps application log settings onto a LoggerConfig.
// An unparseable level falls back to info; validation rejects those earlier.
func ConvertConfig(cfg config.LogConfig) LoggerConfig {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	base := DefaultLoggerConfig()
	base.Level = level
	base.Format = ParseFormat(cfg.LogFormat)
	base.EnableFile = cfg.LogFile != ""
	base.FilePath = cfg.LogFile
	if cfg.MaxLogSizeMB > 0 {
		base.MaxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		base.MaxBackups = cfg.MaxLogBackups
	}
	return base
}
