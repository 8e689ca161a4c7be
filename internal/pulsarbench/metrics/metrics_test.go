package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("pulsarbench_", reg)

	m.RecordReceived(1)
	m.RecordReceived(1)
	m.RecordReceived(2)
	m.ChannelOpened(1)
	m.ChannelOpened(1)
	m.ChannelClosed(1)
	m.RecordSent()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.received.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.received.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeChannels.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sent))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pulsarbench_messages_received_total")
	assert.Contains(t, names, "pulsarbench_messages_sent_total")
}

func TestMetrics_NilRegisterer(t *testing.T) {
	// Two sets with the same names must not collide when unregistered.
	a := NewMetrics("pulsarbench_", nil)
	b := NewMetrics("pulsarbench_", nil)
	a.RecordAck(1)
	b.RecordAckFailure(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.acked.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.ackFailures.WithLabelValues("1")))
}
