package pulsarutils

import (
	"strings"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/apache/pulsar-client-go/pulsaradmin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
	commonconfig "github.com/armadaproject/pulsarbench/internal/common/config"
	"github.com/armadaproject/pulsarbench/internal/common/logging"
)

func NewPulsarAdminClient(config *commonconfig.PulsarConfig) (pulsaradmin.Client, error) {
	if strings.TrimSpace(config.RestURL) == "" {
		return nil, errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "pulsar.RestURL",
			Value:   config.RestURL,
			Message: "a REST URL is required to create a Pulsar admin client",
		})
	}
	tokenPath := ""

	if config.AuthenticationEnabled {
		jwtPath, err := getTokenPath(config)
		if err != nil {
			return nil, err
		}
		tokenPath = jwtPath
	}

	return pulsaradmin.NewClient(&pulsaradmin.Config{
		WebServiceURL:                 config.RestURL,
		TLSTrustCertsFilePath:         config.TLSTrustCertsFilePath,
		TLSEnableHostnameVerification: config.TLSValidateHostname,
		TLSAllowInsecureConnection:    config.TLSAllowInsecureConnection,
		TokenFile:                     tokenPath,
	})
}

// NewPulsarClient creates a client for config. The client's own metrics are registered with registerer, which
// may be nil to fall back to the prometheus default registerer.
func NewPulsarClient(config *commonconfig.PulsarConfig, registerer prometheus.Registerer) (pulsar.Client, error) {
	var authentication pulsar.Authentication

	if config.AuthenticationEnabled {
		jwtPath, err := getTokenPath(config)
		if err != nil {
			return nil, err
		}
		authentication = pulsar.NewAuthenticationTokenFromFile(jwtPath)
	}

	return pulsar.NewClient(pulsar.ClientOptions{
		URL:                        config.URL,
		TLSTrustCertsFilePath:      config.TLSTrustCertsFilePath,
		TLSValidateHostname:        config.TLSValidateHostname,
		TLSAllowInsecureConnection: config.TLSAllowInsecureConnection,
		MaxConnectionsPerBroker:    config.MaxConnectionsPerBroker,
		OperationTimeout:           config.OperationTimeout,
		Authentication:             authentication,
		MetricsRegisterer:          registerer,
		Logger:                     logging.NewPulsarLogger(),
	})
}

func getTokenPath(config *commonconfig.PulsarConfig) (string, error) {
	if strings.ToLower(config.AuthenticationType) != "jwt" {
		return "", errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "pulsar.AuthenticationType",
			Value:   config.AuthenticationType,
			Message: "Only JWT Authentication for Pulsar is supported right now.",
		})
	}
	if strings.TrimSpace(config.JwtTokenPath) == "" {
		return "", errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "pulsar.JwtTokenPath",
			Value:   config.JwtTokenPath,
			Message: "JWT authentication was configured for Pulsar but no JwtTokenPath was supplied",
		})
	}
	return config.JwtTokenPath, nil
}
