// Package logging configures the process wide logrus logger.
package logging

import (
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Setup selects the formatter and level. Production logs are JSON, development logs are text.
func Setup(isProd bool, level string) error {
	if isProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	return nil
}
