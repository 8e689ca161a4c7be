package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/pulsarbench/internal/common/config"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/configuration"
)

// flagKeys maps each command line flag to the config key it overrides.
var flagKeys = map[string]string{
	"url":                         "pulsar.url",
	"restUrl":                     "pulsar.restUrl",
	"authenticationEnabled":       "pulsar.authenticationEnabled",
	"authenticationType":          "pulsar.authenticationType",
	"jwtTokenPath":                "pulsar.jwtTokenPath",
	"tenant":                      "pulsar.tenant",
	"namespace":                   "pulsar.namespace",
	"topic":                       "pulsar.topic",
	"maxConnectionsPerBroker":     "pulsar.maxConnectionsPerBroker",
	"operationTimeout":            "pulsar.operationTimeout",
	"compressionType":             "pulsar.compressionType",
	"compressionLevel":            "pulsar.compressionLevel",
	"consumers":                   "consumers",
	"consumersPerClient":          "consumersPerClient",
	"reactorThreads":              "reactorThreads",
	"subscriptionInitialPosition": "subscriptionInitialPosition",
	"producer":                    "producer.enabled",
	"messages":                    "producer.messages",
	"duration":                    "producer.duration",
	"messageSize":                 "producer.messageSize",
	"messagesPerSecond":           "producer.messagesPerSecond",
	"producerBatching":            "producer.batching",
	"sentinelTimeout":             "producer.sentinelTimeout",
	"probe":                       "probe.enabled",
	"probeTopic":                  "probe.topic",
	"probeSubscription":           "probe.subscription",
	"probeAttempts":               "probe.attempts",
	"probeInterval":               "probe.interval",
	"reportFile":                  "report.file",
	"storage":                     "report.storage",
	"where":                       "report.where",
	"pulsarDeploymentCpus":        "report.pulsarDeploymentCpus",
	"pulsarDeploymentRam":         "report.pulsarDeploymentRam",
	"statsInterval":               "statsInterval",
	"metricsPort":                 "metricsPort",
}

// loadConfig builds the config from the files named by --config, overridden by any flags set on cmd. Flags that
// weren't set still supply their defaults.
func loadConfig(cmd *cobra.Command) (configuration.BenchConfig, error) {
	var config configuration.BenchConfig
	flags := cmd.Flags()

	files, err := flags.GetStringSlice("config")
	if err != nil {
		return config, err
	}

	v := viper.New()
	if err := bindFlags(v, flags); err != nil {
		return config, err
	}
	if err := commonconfig.LoadConfig(v, &config, files); err != nil {
		return config, err
	}
	return config, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(flag *pflag.Flag) {
		key, ok := flagKeys[flag.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, flag)
	})
	return err
}

func addConnectionFlags(flags *pflag.FlagSet) {
	flags.Int("maxConnectionsPerBroker", 1, "Max number of connections to a single broker kept by each client.")
	flags.Duration("operationTimeout", 0, "Timeout for subscribe and create producer. 0 uses the client default.")
}

func addProbeFlags(flags *pflag.FlagSet, enabled bool) {
	if enabled {
		flags.Bool("probe", true, "Wait for Pulsar to accept subscriptions before starting.")
	}
	flags.String("probeTopic", "probe", "Topic the probe subscribes to.")
	flags.String("probeSubscription", "me", "Subscription name used by the probe.")
	flags.Uint("probeAttempts", 60, "Number of probe attempts before giving up.")
	flags.Duration("probeInterval", time.Second, "Time between probe attempts.")
}
