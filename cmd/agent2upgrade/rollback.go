package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/agent2upgrade/internal/messages"
	"github.com/conn-castle/agent2upgrade/internal/upgrade"
)

var confirmFunc = func(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(huh.NewConfirm().Title(title).Value(&ok)))
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func newRollbackCmd(flags *globalFlags) *cobra.Command {
	var restoreBackup, yes bool
	cmd := &cobra.Command{
		Use:   messages.RollbackUse,
		Short: messages.RollbackShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !isTerminal() {
					return errors.New(messages.RollbackRequiresTerminal)
				}
				ok, err := confirmFunc(messages.RollbackConfirmTitle)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New(messages.RollbackAborted)
				}
			}

			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			opts.RestoreBackup = restoreBackup
			res, err := upgrade.Rollback(cmd.Context(), opts)
			out := cmd.OutOrStdout()
			if res != nil {
				for _, a := range res.Restored {
					_, _ = fmt.Fprintf(out, messages.RollbackRestoredFmt, a.Target)
				}
				if res.Backup != "" {
					_, _ = fmt.Fprintf(out, messages.RollbackBackupFmt, opts.Settings.Agent2.Config, res.Backup)
				}
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(out, color.GreenString(messages.RollbackDoneFmt, opts.Settings.Agentd.Service))
			return nil
		},
	}
	cmd.Flags().BoolVar(&restoreBackup, "restore-backup", false, messages.RollbackFlagRestoreBackup)
	cmd.Flags().BoolVar(&yes, "yes", false, messages.RollbackFlagYes)
	return cmd
}
