package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"certidesk/internal/config"
)

// New builds the process logger. Lambda output goes to CloudWatch, so JSON
// is forced there regardless of LOG_FORMAT.
func New(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// Component returns an entry tagged with the component name
func Component(logger logrus.FieldLogger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}
