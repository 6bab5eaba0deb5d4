package bloom

import (
	"fmt"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

type Logger func(v ...interface{})

func StdLogger(logger *log.Logger) Logger {
	if logger == nil {
		logger = log.Default()
	}
	return func(v ...interface{}) {
		logger.Println(v...)
	}
}

// LogrusLogger reports through logger at the warning level.
func LogrusLogger(logger logrus.FieldLogger) Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(v ...interface{}) {
		logger.Warn(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
	}
}

// NoOpLogger drops everything.
func NoOpLogger(_ ...interface{}) {}
