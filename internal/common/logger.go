package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// LogFileName is the file written under the logs directory
const LogFileName = "greattrades.log"

// InitLogger builds the arbor logger described by config.Logging. Console output
// is opt-in because the MCP server owns stdout.
func InitLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	toFile, toConsole := false, false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			toFile = true
		case "stdout", "console":
			toConsole = true
		}
	}

	if toFile {
		if dir, err := logsDirectory(config.Logging.Dir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to prepare logs directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(dir, LogFileName),
				TimeFormat: "2006-01-02 15:04:05",
				MaxSize:    50 * 1024 * 1024,
				MaxBackups: 5,
				OutputType: models.OutputFormatLogfmt,
			})
		}
	}

	if toConsole {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: "15:04:05",
		})
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

// logsDirectory resolves dir, defaulting to "logs" next to the executable
func logsDirectory(dir string) (string, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(filepath.Dir(execPath), "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
