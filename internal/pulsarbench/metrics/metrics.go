package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const groupLabel = "group"

type Metrics struct {
	subscribeFailures *prometheus.CounterVec
	activeChannels    *prometheus.GaugeVec
	received          *prometheus.CounterVec
	receiveFailures   *prometheus.CounterVec
	acked             *prometheus.CounterVec
	ackFailures       *prometheus.CounterVec
	sent              prometheus.Counter
	sendFailures      prometheus.Counter
}

// NewMetrics creates the harness metrics, registering them with registerer. Passing a nil registerer creates
// working but unregistered metrics.
func NewMetrics(prefix string, registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		subscribeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "subscribe_failures_total",
			Help: "Number of failed subscribe requests",
		}, []string{groupLabel}),
		activeChannels: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: prefix + "active_subscriptions",
			Help: "Number of subscriptions currently receiving",
		}, []string{groupLabel}),
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "messages_received_total",
			Help: "Number of messages received",
		}, []string{groupLabel}),
		receiveFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "receive_failures_total",
			Help: "Number of failed receive calls",
		}, []string{groupLabel}),
		acked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "messages_acked_total",
			Help: "Number of messages acknowledged",
		}, []string{groupLabel}),
		ackFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "ack_failures_total",
			Help: "Number of failed acknowledgements",
		}, []string{groupLabel}),
		sent: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "messages_sent_total",
			Help: "Number of messages the producer has had confirmed by the broker",
		}),
		sendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "send_failures_total",
			Help: "Number of messages the producer failed to send",
		}),
	}
}

func (m *Metrics) RecordSubscribeFailure(group int) {
	m.subscribeFailures.WithLabelValues(strconv.Itoa(group)).Inc()
}

func (m *Metrics) ChannelOpened(group int) {
	m.activeChannels.WithLabelValues(strconv.Itoa(group)).Inc()
}

func (m *Metrics) ChannelClosed(group int) {
	m.activeChannels.WithLabelValues(strconv.Itoa(group)).Dec()
}

func (m *Metrics) RecordReceived(group int) {
	m.received.WithLabelValues(strconv.Itoa(group)).Inc()
}

func (m *Metrics) RecordReceiveFailure(group int) {
	m.receiveFailures.WithLabelValues(strconv.Itoa(group)).Inc()
}

func (m *Metrics) RecordAck(group int) {
	m.acked.WithLabelValues(strconv.Itoa(group)).Inc()
}

func (m *Metrics) RecordAckFailure(group int) {
	m.ackFailures.WithLabelValues(strconv.Itoa(group)).Inc()
}

func (m *Metrics) RecordSent() {
	m.sent.Inc()
}

func (m *Metrics) RecordSendFailure() {
	m.sendFailures.Inc()
}
