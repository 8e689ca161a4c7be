package pulsarutils

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
)

const persistentScheme = "persistent://"

// TopicAddress returns the fully qualified name of a persistent topic.
func TopicAddress(tenant, namespace, topic string) string {
	return fmt.Sprintf("%s%s/%s/%s", persistentScheme, tenant, namespace, topic)
}

// ParseTopicAddress is the inverse of TopicAddress.
func ParseTopicAddress(address string) (tenant, namespace, topic string, err error) {
	rest, ok := strings.CutPrefix(address, persistentScheme)
	parts := strings.Split(rest, "/")
	if !ok || len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "topic",
			Value:   address,
			Message: "expected persistent://<tenant>/<namespace>/<topic>",
		})
	}
	return parts[0], parts[1], parts[2], nil
}
