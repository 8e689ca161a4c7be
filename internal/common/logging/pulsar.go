package logging

import (
	plog "github.com/apache/pulsar-client-go/pulsar/log"
	"github.com/sirupsen/logrus"
)

// NewPulsarLogger returns a logger for the pulsar client that writes through the standard logrus logger.
// The client is chatty at info level, so it only reports warnings and above unless debug logging is enabled.
func NewPulsarLogger() plog.Logger {
	std := logrus.StandardLogger()
	l := &logrus.Logger{
		Out:       std.Out,
		Formatter: std.Formatter,
		Hooks:     std.Hooks,
		Level:     logrus.WarnLevel,
	}
	if std.IsLevelEnabled(logrus.DebugLevel) {
		l.Level = std.Level
	}
	return plog.NewLoggerWithLogrus(l)
}
