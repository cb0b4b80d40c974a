package common

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigureLogger sets the global logrus level and formatter. format is
// "text" (default when empty) or "json".
func ConfigureLogger(level, format string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("log format: unknown %q", format)
	}
	logrus.SetLevel(lvl)
	return nil
}
