package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/pulsarbench/internal/common/app"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench"
)

func watchCmd() *cobra.Command {
	a := &pulsarbench.App{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the messages on the test topic",
		Long:  "Print the messages on the test topic, starting from the earliest retained message.",
		Args:  cobra.ExactArgs(0),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err = pulsarbench.New(pulsarbench.Params{Config: config}, pulsarbench.CmdWatch)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Watch(app.CreateContextWithShutdown(), cmd.OutOrStdout())
		},
	}

	addConnectionFlags(cmd.Flags())
	return cmd
}
