package config

import (
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
)

// PulsarConfig holds everything needed to connect to a Pulsar cluster and address the topic under test.
type PulsarConfig struct {
	// Pulsar URL
	URL string `validate:"required"`
	// Pulsar admin REST URL. Optional; enables the namespace check of the readiness probe.
	RestURL string
	// Path to the trusted TLS certificate file (must exist)
	TLSTrustCertsFilePath string
	// Whether Pulsar client accept untrusted TLS certificate from broker
	TLSAllowInsecureConnection bool
	// Whether the Pulsar client will validate the hostname in the broker's TLS Cert matches the actual hostname.
	TLSValidateHostname bool
	// Max number of connections to a single broker that will be kept in the pool. (Default: 1 connection)
	MaxConnectionsPerBroker int
	// Timeout for operations such as subscribe and create producer
	OperationTimeout time.Duration
	// Whether Pulsar authentication is enabled
	AuthenticationEnabled bool
	// Authentication type. For now only "JWT" auth is valid
	AuthenticationType string
	// Path to the JWT token (must exist). This must be specified if AuthenticationType is "JWT"
	JwtTokenPath string
	// Tenant, namespace and topic make up the address persistent://<tenant>/<namespace>/<topic>
	Tenant    string `validate:"required"`
	Namespace string `validate:"required"`
	Topic     string `validate:"required"`
	// Compression to use. Valid values are "None", "LZ4", "Zlib", "Zstd". Default is "None"
	CompressionType pulsar.CompressionType
	// Compression Level to use. Valid values are "Default", "Better", "Faster". Default is "Default"
	CompressionLevel pulsar.CompressionLevel
}
