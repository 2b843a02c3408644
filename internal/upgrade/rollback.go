package upgrade

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
	"github.com/conn-castle/agent2upgrade/internal/conflict"
	"github.com/conn-castle/agent2upgrade/internal/host"
	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// RollbackResult describes what Rollback restored.
type RollbackResult struct {
	Restored []conflict.Action
	// Backup is the backup copied over the agent 2 config, empty when none was.
	Backup string
}

// Rollback re-enables disabled include files, optionally restores the config
// backup, stops agent 2 and brings the legacy agent back. Failing to start the
// legacy agent is fatal; the other service steps only warn.
func Rollback(ctx context.Context, opts Options) (*RollbackResult, error) {
	u, err := newUpgrader(opts)
	if err != nil {
		return nil, err
	}
	return u.rollback(ctx)
}

func (u *upgrader) rollback(ctx context.Context) (*RollbackResult, error) {
	res := &RollbackResult{}
	targetPath := u.cfg.Agent2.Config

	present, err := u.isFile(targetPath)
	if err != nil {
		return res, err
	}
	if present {
		restored, err := conflict.Rollback(u.sys, targetPath, u.log)
		res.Restored = restored
		if err != nil {
			return res, err
		}
		if u.opts.RestoreBackup {
			backup, err := u.restoreBackup(targetPath)
			if err != nil {
				return res, err
			}
			res.Backup = backup
		}
	} else {
		u.log.WithField("file", targetPath).Warn("agent 2 config not found, include files left as they are")
	}

	steps := []serviceStep{
		{host.ActionStop, u.cfg.Agent2.Service, false},
		{host.ActionDisable, u.cfg.Agent2.Service, false},
		{host.ActionEnable, u.cfg.Agentd.Service, false},
		{host.ActionStart, u.cfg.Agentd.Service, true},
		{host.ActionStatus, u.cfg.Agentd.Service, true},
	}
	return res, u.runServiceSteps(ctx, steps, messages.UpgradeRollbackServiceFailedFmt)
}

// restoreBackup copies path's backup over path. The backup itself is kept.
func (u *upgrader) restoreBackup(path string) (string, error) {
	backup := path + agentconf.BackupSuffix
	data, err := u.sys.ReadFile(backup)
	if err != nil {
		return "", fmt.Errorf(messages.UpgradeRestoreBackupFmt, path, backup, err)
	}
	info, err := u.sys.Stat(path)
	if err != nil {
		return "", fmt.Errorf(messages.UpgradeRestoreBackupFmt, path, backup, err)
	}
	if err := u.sys.WriteFileAtomic(path, data, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf(messages.UpgradeRestoreBackupFmt, path, backup, err)
	}
	u.log.WithFields(logrus.Fields{"file": path, "backup": backup}).Info("agent 2 config restored from backup")
	return backup, nil
}
