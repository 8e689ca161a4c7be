package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/pulsarbench/internal/common/app"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench"
)

func probeCmd() *cobra.Command {
	a := &pulsarbench.App{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Wait for Pulsar to accept subscriptions",
		Long:  "Exits successfully once a subscription to the probe topic succeeds, or with an error once all attempts failed.",
		Args:  cobra.ExactArgs(0),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err = pulsarbench.New(pulsarbench.Params{Config: config}, pulsarbench.CmdProbe)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Probe(app.CreateContextWithShutdown())
		},
	}

	addConnectionFlags(cmd.Flags())
	addProbeFlags(cmd.Flags(), false)
	return cmd
}
