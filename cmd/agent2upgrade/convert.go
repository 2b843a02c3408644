package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/agent2upgrade/internal/messages"
	"github.com/conn-castle/agent2upgrade/internal/upgrade"
)

func newConvertCmd(flags *globalFlags) *cobra.Command {
	var (
		force  bool
		ignore []string
	)
	cmd := &cobra.Command{
		Use:   messages.ConvertUse,
		Short: messages.ConvertShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			opts.Force = force
			opts.Ignore = ignore
			res, err := upgrade.Convert(opts)
			if res != nil {
				renderConvertResult(cmd.OutOrStdout(), opts, res)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, messages.ConvertFlagForce)
	cmd.Flags().StringArrayVar(&ignore, "ignore", nil, messages.FlagIgnore)
	return cmd
}

func renderConvertResult(out io.Writer, opts upgrade.Options, res *upgrade.ConvertResult) {
	legacy, target := opts.Settings.Agentd.Config, opts.Settings.Agent2.Config
	if res.Skipped {
		_, _ = fmt.Fprint(out, color.YellowString(messages.ConvertSkippedFmt, legacy))
		return
	}
	if len(res.Collapsed) > 0 {
		_, _ = fmt.Fprint(out, color.YellowString(messages.ConvertCollapsedFmt, strings.Join(res.Collapsed, ", ")))
	}
	if len(res.Changes) == 0 {
		_, _ = fmt.Fprintf(out, messages.ConvertConvergedFmt, target, legacy)
	} else {
		_, _ = fmt.Fprintln(out, messages.ConvertChangesHeader)
		for _, c := range res.Changes {
			_, _ = fmt.Fprintf(out, messages.ConvertChangeFmt, c.Kind, c.Key, c.OldValue, c.NewValue, c.Line)
		}
		_, _ = fmt.Fprintf(out, messages.ConvertBackupFmt, res.Backup)
	}
	if len(res.Actions) > 0 {
		_, _ = fmt.Fprintln(out, messages.ConvertResolvedHeader)
		for _, a := range res.Actions {
			_, _ = fmt.Fprint(out, color.YellowString(messages.ConvertResolvedFmt, a.Kind, a.Path, a.Name))
		}
	}
}
