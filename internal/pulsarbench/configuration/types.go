package configuration

import (
	"time"

	"github.com/apache/pulsar-client-go/pulsar"

	commonconfig "github.com/armadaproject/pulsarbench/internal/common/config"
)

type BenchConfig struct {
	Pulsar commonconfig.PulsarConfig
	// Number of subscriptions to open on the topic. 0 disables the consumer side.
	Consumers int `validate:"gte=0"`
	// Subscriptions are spread over pulsar clients holding at most this many each. Each client is one consumer group.
	ConsumersPerClient int `validate:"gte=1"`
	// Number of workers executing receive completions for all subscriptions.
	ReactorThreads int `validate:"gte=1"`
	// Where new subscriptions start reading from.
	SubscriptionInitialPosition pulsar.SubscriptionInitialPosition
	Producer                    ProducerConfig
	Probe                       ProbeConfig
	Report                      ReportConfig
	// Interval between progress logs. 0 disables them.
	StatsInterval time.Duration
	// Port to serve prometheus metrics and /health on. 0 disables the server.
	MetricsPort uint16
}

type ProducerConfig struct {
	Enabled bool
	// Messages to send before the terminating sentinel. 0 means no limit.
	Messages int64 `validate:"gte=0"`
	// How long to produce for. 0 means no limit.
	Duration time.Duration
	// Payload size in bytes.
	MessageSize int `validate:"gte=1"`
	// Target send rate. 0 sends as fast as the client allows.
	MessagesPerSecond float64 `validate:"gte=0"`
	Batching          bool
	// Upper bound on sending the sentinel, which still happens after the test has been interrupted.
	SentinelTimeout time.Duration
}

// ProbeConfig controls the readiness check run before the test starts.
type ProbeConfig struct {
	Enabled      bool
	Topic        string
	Subscription string
	Attempts     uint
	Interval     time.Duration
}

// ReportConfig names the CSV file results are appended to. The remaining fields are written verbatim into each
// row to describe the environment the test ran in.
type ReportConfig struct {
	File                 string
	Storage              string
	Where                string
	PulsarDeploymentCpus string
	PulsarDeploymentRam  string
}
