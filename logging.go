package osm2ttm

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	log = logrus.WithField("module", "osm2ttm")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

// SetupLogging configures the process-wide logrus logger
func SetupLogging(level string) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.0000",
	})
	lvl, ok := LOG_LEVELS[level]
	if !ok {
		return errors.Errorf("invalid log level: %s", level)
	}
	logrus.SetLevel(lvl)
	return nil
}
