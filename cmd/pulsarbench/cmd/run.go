package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/armadaproject/pulsarbench/internal/common/app"
	commonconfig "github.com/armadaproject/pulsarbench/internal/common/config"
	"github.com/armadaproject/pulsarbench/internal/common/logging"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench"
)

func runCmd() *cobra.Command {
	a := &pulsarbench.App{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a load test",
		Long: `Subscribe the consumers, then publish messages until the message count or duration is reached, and
finally append the results to the report file. Consumers finish when they receive the sentinel the producer
sends last, so consumers and producer can also run as separate processes.`,
		Args: cobra.ExactArgs(0),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err = pulsarbench.New(pulsarbench.Params{Config: config}, pulsarbench.CmdRun)
			if err != nil {
				commonconfig.LogValidationErrors(err)
				return err
			}
			return logging.AddPrometheusHook()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Run(app.CreateContextWithShutdown())
		},
	}

	flags := cmd.Flags()
	addConnectionFlags(flags)
	addProbeFlags(flags, true)
	flags.IntP("consumers", "c", 1, "Number of subscriptions. 0 disables the consumer side.")
	flags.Int("consumersPerClient", 100, "Max number of subscriptions per Pulsar client.")
	flags.Int("reactorThreads", 4, "Number of workers processing consumer completions.")
	flags.String("subscriptionInitialPosition", "latest", "Where new subscriptions start: latest or earliest.")
	flags.Bool("producer", true, "Run the producer.")
	flags.Int64("messages", 1000, "Number of messages to send. 0 for unlimited.")
	flags.Duration("duration", 0, "How long to produce messages for. 0 for unlimited.")
	flags.Int("messageSize", 1024, "Size of each message in bytes.")
	flags.Float64("messagesPerSecond", 0, "How many messages to produce per second. 0 for unlimited.")
	flags.Bool("producerBatching", false, "Let the producer batch messages.")
	flags.Duration("sentinelTimeout", 30*time.Second, "How long to try sending the final sentinel.")
	flags.String("compressionType", "none", "Type of compression to use: none, lz4, zlib or zstd.")
	flags.String("compressionLevel", "default", "Compression level: default, faster or better.")
	flags.Duration("statsInterval", 10*time.Second, "Interval between progress logs. 0 to disable.")
	flags.Uint16("metricsPort", 0, "Port to serve metrics and health on. 0 to disable.")
	flags.String("reportFile", "results.csv", "CSV file to append results to. Empty to disable.")
	flags.String("storage", "", "Storage used by Pulsar (written to the report).")
	flags.String("where", "", "Where the test ran (written to the report).")
	flags.String("pulsarDeploymentCpus", "", "CPUs available to Pulsar (written to the report).")
	flags.String("pulsarDeploymentRam", "", "RAM available to Pulsar (written to the report).")

	return cmd
}
