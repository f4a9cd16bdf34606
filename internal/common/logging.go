package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logFileName = "aktis-collector-wonderdesk.log"

var (
	logger arbor.ILogger
	mu     sync.RWMutex
)

// GetLogger returns the process logger, creating a default one on first use
func GetLogger() arbor.ILogger {
	mu.RLock()
	if logger != nil {
		mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		logger = initDefaultLogger()
	}
	return logger
}

// GetLogFilePath returns the configured log file path
func GetLogFilePath() string {
	mu.RLock()
	currentLogger := logger
	mu.RUnlock()

	if currentLogger != nil {
		if logFilePath := currentLogger.GetLogFilePath(); logFilePath != "" {
			return logFilePath
		}
	}

	return filepath.Join(logsDir(), logFileName)
}

// InitLogger configures the process logger once
func InitLogger(config *LoggingConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return nil
	}

	var err error
	logger, err = createLogger(config)
	return err
}

func initDefaultLogger() arbor.ILogger {
	l, err := createLogger(&LoggingConfig{Level: "info", Output: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize default logger: %v\n", err)
		return arbor.NewLogger()
	}
	return l
}

func logsDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(execPath), "logs")
}

func createLogger(config *LoggingConfig) (arbor.ILogger, error) {
	l := arbor.NewLogger()

	if config.Output == "both" || config.Output == "file" {
		dir := logsDir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}

		maxSize := config.MaxSize
		if maxSize <= 0 {
			maxSize = 100
		}

		l = l.WithFileWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeFile,
			FileName:         filepath.Join(dir, logFileName),
			TimeFormat:       "15:04:05",
			MaxSize:          int64(maxSize * 1024 * 1024),
			MaxBackups:       config.MaxBackups,
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	if config.Output == "both" || config.Output == "console" {
		l = l.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	l = l.WithLevelFromString(config.Level)
	l.Debug().Str("level", config.Level).Str("output", config.Output).Msg("Logger initialized")

	return l, nil
}
