package pulsarbench

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/pulsarbench/internal/pulsarbench/configuration"
)

var reportHeader = []string{
	"mps", "messages", "streams", "connections-per-broker", "reactor-threads", "batching",
	"s-duration", "s-ok", "s-failed", "s-avg", "s-total-avg",
	"r-duration", "r-ok", "r-failed", "r-acked", "r-avg", "r-total-avg",
	"app-time", "storage", "where", "pulsar-cpus", "pulsar-ram", "run-id",
}

// Report is one row of the results file. A nil result leaves its columns empty.
type Report struct {
	RunId    string
	Config   configuration.BenchConfig
	Producer *Result
	Consumer *Result
	AppTime  time.Duration
}

func (r Report) Row() []string {
	c := r.Config
	row := []string{
		formatFloat(c.Producer.MessagesPerSecond),
		strconv.FormatInt(c.Producer.Messages, 10),
		strconv.Itoa(c.Consumers),
		strconv.Itoa(c.Pulsar.MaxConnectionsPerBroker),
		strconv.Itoa(c.ReactorThreads),
		strconv.FormatBool(c.Producer.Batching),
	}
	row = append(row, resultColumns(r.Producer, false)...)
	row = append(row, resultColumns(r.Consumer, true)...)
	return append(row,
		formatFloat(r.AppTime.Seconds()),
		c.Report.Storage,
		c.Report.Where,
		c.Report.PulsarDeploymentCpus,
		c.Report.PulsarDeploymentRam,
		r.RunId,
	)
}

func resultColumns(result *Result, withAcks bool) []string {
	n := 5
	if withAcks {
		n = 6
	}
	if result == nil {
		return make([]string, n)
	}
	columns := []string{
		formatFloat(result.Duration.Seconds()),
		strconv.FormatInt(result.OkMessages, 10),
		strconv.FormatInt(result.FailedMessages, 10),
	}
	if withAcks {
		columns = append(columns, strconv.FormatInt(result.AckedMessages, 10))
	}
	return append(columns, formatFloat(result.AvgPerSecond), formatFloat(result.AggregatedAvgPerSecond))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// WriteReport appends report to the CSV file at path, writing the header first if the file doesn't exist yet.
func WriteReport(path string, report Report) error {
	_, err := os.Stat(path)
	writeHeader := errors.Is(err, os.ErrNotExist)
	if err != nil && !writeHeader {
		return errors.WithStack(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "error opening report file %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(reportHeader); err != nil {
			return errors.WithStack(err)
		}
	}
	if err := w.Write(report.Row()); err != nil {
		return errors.WithStack(err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "error writing report file %s", path)
	}
	return errors.WithStack(f.Close())
}
