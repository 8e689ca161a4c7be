package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePulsarCompressionType(t *testing.T) {
	tests := map[string]pulsar.CompressionType{
		"":     pulsar.NoCompression,
		"None": pulsar.NoCompression,
		"lz4":  pulsar.LZ4,
		"ZLIB": pulsar.ZLib,
		"zstd": pulsar.ZSTD,
	}
	for in, want := range tests {
		got, err := ParsePulsarCompressionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePulsarCompressionType("nocompression")
	assert.Error(t, err)
}

func TestParsePulsarCompressionLevel(t *testing.T) {
	got, err := ParsePulsarCompressionLevel("Better")
	require.NoError(t, err)
	assert.Equal(t, pulsar.Better, got)

	_, err = ParsePulsarCompressionLevel("veryCompressed")
	assert.Error(t, err)
}

func TestParseSubscriptionInitialPosition(t *testing.T) {
	got, err := ParseSubscriptionInitialPosition("earliest")
	require.NoError(t, err)
	assert.Equal(t, pulsar.SubscriptionPositionEarliest, got)

	got, err = ParseSubscriptionInitialPosition("")
	require.NoError(t, err)
	assert.Equal(t, pulsar.SubscriptionPositionLatest, got)

	_, err = ParseSubscriptionInitialPosition("middle")
	assert.Error(t, err)
}

type testConfig struct {
	Pulsar   PulsarConfig
	Position pulsar.SubscriptionInitialPosition
	Interval time.Duration
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
pulsar:
  url: pulsar://broker:6650
  tenant: t
  namespace: ns
  topic: tp
  compressionType: zstd
  compressionLevel: faster
  operationTimeout: 15s
position: earliest
interval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	v := viper.New()
	v.SetDefault("pulsar.maxConnectionsPerBroker", 4)

	var c testConfig
	require.NoError(t, LoadConfig(v, &c, []string{path}))

	assert.Equal(t, "pulsar://broker:6650", c.Pulsar.URL)
	assert.Equal(t, pulsar.ZSTD, c.Pulsar.CompressionType)
	assert.Equal(t, pulsar.Faster, c.Pulsar.CompressionLevel)
	assert.Equal(t, 15*time.Second, c.Pulsar.OperationTimeout)
	assert.Equal(t, 4, c.Pulsar.MaxConnectionsPerBroker)
	assert.Equal(t, pulsar.SubscriptionPositionEarliest, c.Position)
	assert.Equal(t, 2*time.Second, c.Interval)
	assert.NoError(t, Validate(c.Pulsar))
}

func TestLoadConfigMissingFile(t *testing.T) {
	var c testConfig
	assert.Error(t, LoadConfig(viper.New(), &c, []string{filepath.Join(t.TempDir(), "missing.yaml")}))
}

func TestValidateRequiresTopicAddress(t *testing.T) {
	err := Validate(PulsarConfig{URL: "pulsar://localhost:6650"})
	assert.Error(t, err)
	LogValidationErrors(err)
}
