package logging

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
)

const (
	FormatText = "text"
	FormatJson = "json"
)

// ConfigureLogging sets up the standard logrus logger for a long-running benchmark. Output goes to stdout, either
// as coloured text with full timestamps or as json.
func ConfigureLogging(level string, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "logLevel",
			Value:   level,
			Message: "valid levels are trace, debug, info, warn and error",
		})
	}

	switch strings.ToLower(format) {
	case FormatText, "":
		log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	case FormatJson:
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		return errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "logFormat",
			Value:   format,
			Message: "valid formats are text and json",
		})
	}
	log.SetOutput(os.Stdout)
	log.SetLevel(lvl)
	return nil
}

// ConfigureCommandLineLogging sets up logging for one-shot commands such as version, where only the message matters.
func ConfigureCommandLineLogging() {
	log.SetFormatter(new(CommandLineFormatter))
	log.SetOutput(os.Stdout)
}
