package pulsarbench_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	commonconfig "github.com/armadaproject/pulsarbench/internal/common/config"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/configuration"
)

// Must be manually reconciled with the docker-compose setup used by the e2e tests.
const (
	pulsarUrl = "pulsar://localhost:6650"
	tenant    = "public"
	namespace = "default"
)

func benchConfig(t *testing.T) configuration.BenchConfig {
	return configuration.BenchConfig{
		Pulsar: commonconfig.PulsarConfig{
			URL:       pulsarUrl,
			Tenant:    tenant,
			Namespace: namespace,
			// A fresh topic per test so leftovers from earlier runs aren't received.
			Topic: "pulsarbench-e2e-" + uuid.NewString(),
		},
		Consumers:          4,
		ConsumersPerClient: 2,
		ReactorThreads:     2,
		Producer: configuration.ProducerConfig{
			Enabled:     true,
			Messages:    500,
			MessageSize: 64,
		},
		Probe: configuration.ProbeConfig{
			Enabled:      true,
			Topic:        "probe",
			Subscription: "me",
			Attempts:     30,
			Interval:     time.Second,
		},
		Report: configuration.ReportConfig{
			File:  filepath.Join(t.TempDir(), "results.csv"),
			Where: "e2e",
		},
	}
}

func newApp(t *testing.T, config configuration.BenchConfig, cmdType string) *pulsarbench.App {
	registry := prometheus.NewRegistry()
	app, err := pulsarbench.New(pulsarbench.Params{Config: config, Registerer: registry, Gatherer: registry}, cmdType)
	require.NoError(t, err)
	return app
}

func TestProbe(t *testing.T) {
	ctx, cancel := benchcontext.WithTimeout(benchcontext.Background(), time.Minute)
	defer cancel()
	assert.NoError(t, newApp(t, benchConfig(t), pulsarbench.CmdProbe).Probe(ctx))
}

func TestRun(t *testing.T) {
	config := benchConfig(t)
	ctx, cancel := benchcontext.WithTimeout(benchcontext.Background(), 2*time.Minute)
	defer cancel()

	app := newApp(t, config, pulsarbench.CmdRun)
	require.NoError(t, app.Run(ctx))

	f, err := os.Open(config.Report.File)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := map[string]string{}
	for i, column := range records[0] {
		row[column] = records[1][i]
	}
	assert.Equal(t, "500", row["s-ok"])
	assert.Equal(t, "0", row["s-failed"])
	// Each subscription receives every message and the sentinel.
	assert.Equal(t, strconv.Itoa(4*501), row["r-ok"])
	assert.Equal(t, "e2e", row["where"])
	assert.Equal(t, app.RunId(), row["run-id"])
}

func TestNew(t *testing.T) {
	config := benchConfig(t)
	config.Pulsar.URL = ""
	_, err := pulsarbench.New(pulsarbench.Params{Config: config}, pulsarbench.CmdRun)
	assert.Error(t, err)

	config = benchConfig(t)
	_, err = pulsarbench.New(pulsarbench.Params{Config: config}, "observe")
	assert.Error(t, err)
}
