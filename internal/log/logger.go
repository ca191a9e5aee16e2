package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bombsimon/logrusr/v4"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"

	"github.com/nok-base/consul-sync/internal/config"
)

const name = "consul-sync"

var logger logr.Logger

func Init(conf config.Logs) error {
	return InitWithOutput(conf, os.Stdout)
}

// InitWithOutput configures the global logger. logr verbosity V(n) is logged when n <= conf.Level.
func InitWithOutput(conf config.Logs, out io.Writer) error {
	loggerImpl := logrus.New()

	loggerImpl.SetLevel(logrus.Level(conf.Level + int(logrus.InfoLevel)))
	loggerImpl.SetOutput(out)

	switch conf.Encoder {
	case config.EncoderTypeConsole:
		loggerImpl.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	case config.EncoderTypeJson:
		loggerImpl.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		})
	default:
		return fmt.Errorf("unexpected encoder value %v", conf.Encoder)
	}

	logger = logrusr.New(loggerImpl, logrusr.WithReportCaller()).WithName(name)

	return nil
}

// Logger returns the global logger, a no-op one until Init is called.
func Logger() logr.Logger {
	return logger
}
