// Package upgrade sequences the migration from the legacy agent to agent 2:
// preflight checks, package installation, config conversion and the service
// cutover, plus the operator-invoked rollback.
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
	"github.com/conn-castle/agent2upgrade/internal/conflict"
	"github.com/conn-castle/agent2upgrade/internal/host"
	"github.com/conn-castle/agent2upgrade/internal/messages"
	"github.com/conn-castle/agent2upgrade/internal/settings"
)

// Options carries the collaborators and operator choices for one invocation.
// Each operation checks only the collaborators it uses.
type Options struct {
	Settings *settings.Settings
	System   conflict.System
	Services host.ServiceControl
	Packages host.PackageManager
	Probe    host.Reachability
	OS       host.OSIdentity
	Runner   host.Runner
	Log      logrus.FieldLogger
	// Out receives operator-facing output such as the legacy agent version.
	Out io.Writer

	// URL is the agent 2 package source.
	URL string
	// Force reinstalls an existing agent 2 and resolves UserParameter collisions.
	Force bool
	// Ignore adds keys to convert.ignore_keys for this run.
	Ignore []string
	// RestoreBackup makes Rollback copy the pre-conversion backup over the agent 2 config.
	RestoreBackup bool
}

type upgrader struct {
	opts     Options
	cfg      *settings.Settings
	sys      conflict.System
	log      logrus.FieldLogger
	out      io.Writer
	builtins conflict.NameSet
}

type serviceStep struct {
	action   host.Action
	service  string
	critical bool
}

func newUpgrader(opts Options) (*upgrader, error) {
	if opts.Settings == nil {
		return nil, fmt.Errorf(messages.UpgradeOptionRequiredFmt, "Settings")
	}
	if opts.System == nil {
		return nil, fmt.Errorf(messages.UpgradeOptionRequiredFmt, "System")
	}
	if opts.Log == nil {
		return nil, fmt.Errorf(messages.UpgradeOptionRequiredFmt, "Log")
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &upgrader{
		opts:     opts,
		cfg:      opts.Settings,
		sys:      opts.System,
		log:      opts.Log,
		out:      out,
		builtins: conflict.Builtins(),
	}, nil
}

// Run performs the whole upgrade: preflight, install, convert, cutover.
// The first failing step aborts the rest; nothing is undone automatically.
func Run(ctx context.Context, opts Options) error {
	u, err := newUpgrader(opts)
	if err != nil {
		return err
	}
	steps := []func(context.Context) error{
		u.preflight,
		u.install,
		func(context.Context) error {
			_, err := u.convert()
			return err
		},
		u.cutover,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Preflight checks the platform and that agent 2 is absent (unless forced),
// and prints the legacy agent version when it is installed.
func Preflight(ctx context.Context, opts Options) error {
	u, err := newUpgrader(opts)
	if err != nil {
		return err
	}
	return u.preflight(ctx)
}

// Install probes the package source and installs agent 2, removing an
// existing package first when forced.
func Install(ctx context.Context, opts Options) error {
	u, err := newUpgrader(opts)
	if err != nil {
		return err
	}
	return u.install(ctx)
}

// Cutover stops the legacy service and starts agent 2.
func Cutover(ctx context.Context, opts Options) error {
	u, err := newUpgrader(opts)
	if err != nil {
		return err
	}
	return u.cutover(ctx)
}

func (u *upgrader) preflight(ctx context.Context) error {
	if u.opts.OS == nil {
		return fmt.Errorf(messages.UpgradeOptionRequiredFmt, "OS")
	}
	platform, err := u.opts.OS.Detect()
	if err != nil {
		return fmt.Errorf(messages.UpgradeDetectOSFmt, ErrUnsupportedPlatform, err)
	}
	if !slices.Contains(u.cfg.Host.SupportedOS, platform) {
		return fmt.Errorf(messages.UpgradeUnsupportedOSFmt, ErrUnsupportedPlatform, platform, strings.Join(u.cfg.Host.SupportedOS, ", "))
	}
	u.log.WithField("platform", platform).Info("platform supported")

	installed, err := u.isFile(u.cfg.Agent2.Binary)
	if err != nil {
		return err
	}
	if installed && !u.opts.Force {
		return fmt.Errorf(messages.UpgradeAlreadyInstalledFmt, ErrAlreadyInstalled, u.cfg.Agent2.Binary)
	}

	legacy, err := u.isFile(u.cfg.Agentd.Binary)
	if err != nil {
		return err
	}
	if legacy && u.opts.Runner != nil {
		version, err := u.opts.Runner.Run(ctx, u.cfg.Agentd.Binary, "--version")
		if err != nil {
			u.log.WithError(err).Warn("unable to read legacy agent version")
		} else {
			fmt.Fprintf(u.out, messages.UpgradeVersionBannerFmt, "version", strings.TrimSpace(version))
		}
	}
	return nil
}

func (u *upgrader) install(ctx context.Context) error {
	if u.opts.URL == "" {
		return fmt.Errorf(messages.UpgradeOptionRequiredFmt, "URL")
	}
	if u.opts.Probe == nil {
		return fmt.Errorf(messages.UpgradeOptionRequiredFmt, "Probe")
	}
	if u.opts.Packages == nil {
		return fmt.Errorf(messages.UpgradeOptionRequiredFmt, "Packages")
	}

	if !u.opts.Probe.Probe(ctx, u.opts.URL, u.cfg.ProbeTimeout()) {
		return fmt.Errorf(messages.UpgradeUnreachableFmt, ErrUnreachableSource, u.opts.URL, u.cfg.Host.ProbeTimeoutSeconds)
	}

	if u.opts.Force {
		installed, err := u.isFile(u.cfg.Agent2.Binary)
		if err != nil {
			return err
		}
		if installed && !u.opts.Packages.Remove(ctx, u.cfg.Agent2.Package) {
			return fmt.Errorf(messages.UpgradeRemoveFailedFmt, ErrInstallFailure, u.cfg.Agent2.Package)
		}
	}
	if !u.opts.Packages.Install(ctx, u.opts.URL) {
		return fmt.Errorf(messages.UpgradeInstallFailedFmt, ErrInstallFailure, u.opts.URL)
	}
	return nil
}

func (u *upgrader) cutover(ctx context.Context) error {
	legacy, err := u.isFile(u.cfg.Agentd.Binary)
	if err != nil {
		return err
	}
	var steps []serviceStep
	if legacy {
		steps = append(steps,
			serviceStep{host.ActionStop, u.cfg.Agentd.Service, true},
			serviceStep{host.ActionDisable, u.cfg.Agentd.Service, false},
		)
	}
	steps = append(steps,
		serviceStep{host.ActionStart, u.cfg.Agent2.Service, true},
		serviceStep{host.ActionEnable, u.cfg.Agent2.Service, false},
		serviceStep{host.ActionStatus, u.cfg.Agent2.Service, true},
	)
	return u.runServiceSteps(ctx, steps, messages.UpgradeServiceStepFailedFmt)
}

// runServiceSteps performs steps in order. A failed critical step aborts with
// failFmt; a failed non-critical step is logged and skipped.
func (u *upgrader) runServiceSteps(ctx context.Context, steps []serviceStep, failFmt string) error {
	if u.opts.Services == nil {
		return fmt.Errorf(messages.UpgradeOptionRequiredFmt, "Services")
	}
	for _, s := range steps {
		if u.opts.Services.Perform(ctx, s.action, s.service) {
			continue
		}
		if s.critical {
			return fmt.Errorf(failFmt, ErrServiceTransition, s.action, s.service)
		}
		u.log.WithFields(logrus.Fields{"action": s.action, "service": s.service}).
			Warn("non-critical service step failed, continuing")
	}
	return nil
}

// isFile reports whether path exists and is not a directory.
func (u *upgrader) isFile(path string) (bool, error) {
	info, err := u.sys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf(messages.UpgradeStatFmt, path, err)
	}
	return !info.IsDir(), nil
}

func (u *upgrader) ignoreSet() agentconf.KeySet {
	return u.cfg.IgnoreSet(u.opts.Ignore...)
}
