// Package logging wires the process-wide structured logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the pipeline's logger: JSON-formatted, written to stdout, at
// the given level — the standard logrus setup for a long-running service.
func New(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	return log
}

// ParseLevel wraps logrus.ParseLevel with a safe fallback to InfoLevel,
// used by cmd/vod2tube to turn Config.LogLevel into a logrus level.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
