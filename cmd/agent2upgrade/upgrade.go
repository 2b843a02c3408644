package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/agent2upgrade/internal/messages"
	"github.com/conn-castle/agent2upgrade/internal/upgrade"
)

func newUpgradeCmd(flags *globalFlags) *cobra.Command {
	var (
		url    string
		force  bool
		ignore []string
	)
	cmd := &cobra.Command{
		Use:   messages.UpgradeUse,
		Short: messages.UpgradeShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				return errors.New(messages.UpgradeURLRequired)
			}
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			opts.URL = url
			opts.Force = force
			opts.Ignore = ignore
			if err := upgrade.Run(cmd.Context(), opts); err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), color.GreenString(messages.UpgradeDoneFmt, opts.Settings.Agent2.Service, opts.Settings.Agent2.Config))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", messages.UpgradeFlagURL)
	cmd.Flags().BoolVar(&force, "force", false, messages.UpgradeFlagForce)
	cmd.Flags().StringArrayVar(&ignore, "ignore", nil, messages.FlagIgnore)
	return cmd
}
