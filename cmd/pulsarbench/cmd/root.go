package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/pulsarbench/internal/common/logging"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pulsarbench",
		Short:        "pulsarbench generates load against Pulsar and measures producer and consumer throughput.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cmd.Flags().GetString("logLevel")
			if err != nil {
				return err
			}
			format, err := cmd.Flags().GetString("logFormat")
			if err != nil {
				return err
			}
			return logging.ConfigureLogging(level, format)
		},
	}

	cmd.PersistentFlags().StringSlice("config", nil, "Config files to load. Later files override earlier ones; flags override both.")
	cmd.PersistentFlags().String("logLevel", "info", "Log level: trace, debug, info, warn or error.")
	cmd.PersistentFlags().String("logFormat", logging.FormatText, "Log format: text or json.")
	cmd.PersistentFlags().String("url", "pulsar://localhost:6650", "URL to connect to Pulsar on.")
	cmd.PersistentFlags().String("restUrl", "", "URL of the Pulsar admin REST API. Enables the namespace check of the probe.")
	cmd.PersistentFlags().Bool("authenticationEnabled", false, "Use authentication.")
	cmd.PersistentFlags().String("authenticationType", "JWT", "Authentication type")
	cmd.PersistentFlags().String("jwtTokenPath", "", "Path of JWT file")
	cmd.PersistentFlags().String("tenant", "public", "Pulsar tenant of the test topic.")
	cmd.PersistentFlags().String("namespace", "default", "Pulsar namespace of the test topic.")
	cmd.PersistentFlags().String("topic", "pulsarbench", "Name of the test topic.")

	cmd.AddCommand(
		runCmd(),
		probeCmd(),
		watchCmd(),
		versionCmd(),
	)

	return cmd
}
