package logger

import (
	"io"
	stdlog "log"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/rs/zerolog"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	config LoggerConfig
}

// NewLoggerBuilder creates a new logger builder
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{config: DefaultLoggerConfig()}
}

// WithConfig sets the logger configuration from application settings
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	out, sessionID, noColor := lb.config.ConsoleOut, lb.config.SessionID, lb.config.NoColor
	lb.config = ConvertConfig(cfg)
	lb.config.ConsoleOut = out
	lb.config.SessionID = sessionID
	lb.config.NoColor = noColor
	return lb
}

func (lb *LoggerBuilder) WithLevel(level zerolog.Level) *LoggerBuilder {
	lb.config.Level = level
	return lb
}

func (lb *LoggerBuilder) WithFormat(format LogFormat) *LoggerBuilder {
	lb.config.Format = format
	return lb
}

// WithFile enables rotating file output
func (lb *LoggerBuilder) WithFile(path string, maxSizeMB, maxBackups int) *LoggerBuilder {
	lb.config.EnableFile = true
	lb.config.FilePath = path
	lb.config.MaxSizeMB = maxSizeMB
	lb.config.MaxBackups = maxBackups
	return lb
}

func (lb *LoggerBuilder) WithConsole(enabled bool) *LoggerBuilder {
	lb.config.EnableConsole = enabled
	return lb
}

// WithConsoleOutput redirects console output, stderr by default
func (lb *LoggerBuilder) WithConsoleOutput(w io.Writer) *LoggerBuilder {
	lb.config.ConsoleOut = w
	return lb
}

func (lb *LoggerBuilder) WithNoColor(noColor bool) *LoggerBuilder {
	lb.config.NoColor = noColor
	return lb
}

// WithSessionID tags every entry with the monitor session
func (lb *LoggerBuilder) WithSessionID(sessionID string) *LoggerBuilder {
	lb.config.SessionID = sessionID
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (*Logger, error) {
	if err := lb.validateConfig(); err != nil {
		return nil, err
	}

	factory := NewWriterFactory(lb.config.NoColor)
	var writers []io.Writer
	var closers []io.Closer

	if lb.config.EnableConsole {
		writers = append(writers, factory.CreateConsoleWriter(lb.config.Format, lb.config.ConsoleOut))
	}
	if lb.config.EnableFile {
		fileWriter, closer := factory.CreateFileWriter(lb.config)
		writers = append(writers, fileWriter)
		closers = append(closers, closer)
	}
	if len(writers) == 0 {
		return nil, errorwrapper.NewError("no output writers configured")
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.config.Level).
		With().
		Timestamp()
	if lb.config.SessionID != "" {
		ctx = ctx.Str("session_id", lb.config.SessionID)
	}
	zerologInstance := ctx.Logger()

	stdlog.SetOutput(zerologInstance)
	stdlog.SetFlags(0)

	return &Logger{
		zerolog: zerologInstance,
		config:  lb.config,
		closers: closers,
	}, nil
}

func (lb *LoggerBuilder) validateConfig() error {
	if lb.config.EnableFile && lb.config.FilePath == "" {
		return errorwrapper.NewValidationError("file_path", lb.config.FilePath, "file path required when file logging enabled")
	}
	if lb.config.EnableFile && lb.config.MaxSizeMB <= 0 {
		return errorwrapper.NewValidationError("max_size_mb", lb.config.MaxSizeMB, "max size must be positive")
	}
	return nil
}
