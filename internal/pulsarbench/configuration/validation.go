package configuration

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
	commonconfig "github.com/armadaproject/pulsarbench/internal/common/config"
)

func (c BenchConfig) Validate() error {
	if err := commonconfig.Validate(c); err != nil {
		return err
	}
	if !c.Producer.Enabled && c.Consumers == 0 {
		return errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "consumers",
			Value:   c.Consumers,
			Message: "Nothing to do. Neither a producer nor a consumer is enabled",
		})
	}
	if c.Probe.Enabled {
		if strings.TrimSpace(c.Probe.Topic) == "" {
			return errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
				Name:    "probe.topic",
				Value:   c.Probe.Topic,
				Message: "a topic is required when the probe is enabled",
			})
		}
		if c.Probe.Attempts == 0 {
			return errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
				Name:    "probe.attempts",
				Value:   c.Probe.Attempts,
				Message: "at least one attempt is required when the probe is enabled",
			})
		}
	}
	return nil
}

// ValidateConnection checks only what's needed to talk to the topic, for the commands that don't run a test.
func (c BenchConfig) ValidateConnection() error {
	return commonconfig.Validate(c.Pulsar)
}
