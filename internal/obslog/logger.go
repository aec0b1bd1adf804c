// Package obslog provides the service's structured logger.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger instance.
var Logger = New("info", "stdout")

var levels = map[string]logrus.Level{
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
}

// New creates a JSON-formatted logger. level is one of debug/info/warn/
// error, with unknown values falling back to info. output is "stdout" or
// a file path; an unopenable file falls back to stdout with a warning.
func New(level, output string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(parseLevel(level))
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})

	w, err := openOutput(output)
	if err != nil {
		logger.SetOutput(os.Stdout)
		logger.WithError(err).WithField("path", output).Warn("cannot open log file, using stdout")
		return logger
	}
	logger.SetOutput(w)
	return logger
}

func parseLevel(name string) logrus.Level {
	if lvl, ok := levels[name]; ok {
		return lvl
	}
	return logrus.InfoLevel
}

func openOutput(output string) (io.Writer, error) {
	if output == "" || output == "stdout" {
		return os.Stdout, nil
	}
	return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// SetLevel changes the global logger's level at runtime. Unknown names
// set the level to info.
func SetLevel(level string) {
	Logger.SetLevel(parseLevel(level))
}
