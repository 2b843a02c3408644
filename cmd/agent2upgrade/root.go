package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/conn-castle/agent2upgrade/internal/conflict"
	"github.com/conn-castle/agent2upgrade/internal/host"
	"github.com/conn-castle/agent2upgrade/internal/logging"
	"github.com/conn-castle/agent2upgrade/internal/messages"
	"github.com/conn-castle/agent2upgrade/internal/settings"
	"github.com/conn-castle/agent2upgrade/internal/upgrade"
)

var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// attachHost wires the real host collaborators into opts.
var attachHost = func(opts *upgrade.Options) {
	runner := host.Exec{Log: logging.New("exec")}
	opts.System = conflict.RealSystem{}
	opts.Runner = runner
	opts.Services = &host.Systemd{Socket: opts.Settings.Host.SystemdSocket, Log: logging.New("systemd")}
	opts.Packages = host.RPM{Runner: runner, Log: logging.New("rpm")}
	opts.Probe = host.HTTPProbe{Log: logging.New("probe")}
	opts.OS = host.Uname{}
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", messages.FlagConfig)
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", messages.FlagLogLevel)
	cmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", messages.FlagLogFile)

	cmd.AddCommand(
		newUpgradeCmd(flags),
		newConvertCmd(flags),
		newPlanCmd(flags),
		newConflictsCmd(flags),
		newRollbackCmd(flags),
	)
	return cmd
}

// options loads settings, points the root logger at the command's stderr and
// returns upgrade options carrying the host collaborators.
func (f *globalFlags) options(cmd *cobra.Command) (upgrade.Options, error) {
	var cfg *settings.Settings
	var err error
	if f.configPath != "" {
		cfg, err = settings.Load(f.configPath)
	} else {
		cfg, err = settings.LoadOrDefault(settings.DefaultPath)
	}
	if err != nil {
		return upgrade.Options{}, err
	}

	level := cfg.Log.Level
	if f.logLevel != "" {
		if _, err := logrus.ParseLevel(f.logLevel); err != nil {
			return upgrade.Options{}, fmt.Errorf(messages.LogLevelInvalidFmt, f.logLevel, err)
		}
		level = f.logLevel
	}
	_ = logging.Set(logging.Output(cmd.ErrOrStderr()))
	_ = logging.Set(logging.Level(level))
	logFile := cfg.Log.File
	if f.logFile != "" {
		logFile = f.logFile
	}
	if logFile != "" {
		if err := logging.Set(logging.File(logFile)); err != nil {
			return upgrade.Options{}, fmt.Errorf(messages.LogFileOpenFmt, logFile, err)
		}
	}

	opts := upgrade.Options{
		Settings: cfg,
		Log:      logging.New(cmd.Name()),
		Out:      cmd.OutOrStdout(),
	}
	attachHost(&opts)
	return opts, nil
}
