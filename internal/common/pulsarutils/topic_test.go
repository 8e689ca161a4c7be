package pulsarutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicAddress(t *testing.T) {
	assert.Equal(t, "persistent://t/ns/tp", TopicAddress("t", "ns", "tp"))
	assert.Equal(t, "persistent://public/default/probe", TopicAddress("public", "default", "probe"))
}

func TestParseTopicAddress(t *testing.T) {
	tenant, namespace, topic, err := ParseTopicAddress("persistent://t/ns/tp")
	require.NoError(t, err)
	assert.Equal(t, "t", tenant)
	assert.Equal(t, "ns", namespace)
	assert.Equal(t, "tp", topic)

	for _, invalid := range []string{
		"",
		"t/ns/tp",
		"non-persistent://t/ns/tp",
		"persistent://t/ns",
		"persistent://t//tp",
		"persistent://t/ns/tp/extra",
	} {
		_, _, _, err := ParseTopicAddress(invalid)
		assert.Error(t, err, invalid)
	}
}
