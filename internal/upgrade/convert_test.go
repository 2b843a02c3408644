package upgrade

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
	"github.com/conn-castle/agent2upgrade/internal/conflict"
)

const agent2Conf = `# This is a configuration file for Zabbix agent 2 (Unix)

PidFile=/var/run/zabbix/zabbix_agent2.pid

### Option: LogFileSize
# LogFileSize=1

Timeout=30
`

func TestConvert_CarriesLegacyValues(t *testing.T) {
	h := newHarness(t)
	cfg := h.opts.Settings
	h.write(t, cfg.Agentd.Config, "Timeout = 3\nLogFileSize = 10\nPidFile = /x\n")
	h.write(t, cfg.Agent2.Config, agent2Conf)

	res, err := Convert(h.opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"Timeout"}, res.Diff.Update.Sorted())
	assert.Equal(t, []string{"LogFileSize"}, res.Diff.Add.Sorted())
	assert.Equal(t, cfg.Agent2.Config+agentconf.BackupSuffix, res.Backup)
	assert.Equal(t, agent2Conf, h.read(t, res.Backup))
	assert.Equal(t, `# This is a configuration file for Zabbix agent 2 (Unix)

PidFile=/var/run/zabbix/zabbix_agent2.pid

### Option: LogFileSize
# LogFileSize=1
LogFileSize = 10

Timeout = 3
`, h.read(t, cfg.Agent2.Config))
	assert.False(t, conflictFound(res))
}

func conflictFound(res *ConvertResult) bool {
	return len(res.Colliding) > 0
}

func TestConvert_ConvergedWritesNoBackup(t *testing.T) {
	h := newHarness(t)
	cfg := h.opts.Settings
	h.write(t, cfg.Agentd.Config, "Server=zbx\nPidFile=/x\n")
	h.write(t, cfg.Agent2.Config, "Server=zbx\n")

	res, err := Convert(h.opts)
	require.NoError(t, err)
	assert.True(t, res.Diff.Empty())
	assert.Empty(t, res.Backup)
	assert.False(t, exists(cfg.Agent2.Config+agentconf.BackupSuffix))
}

func TestConvert_SkippedWithoutLegacyConfig(t *testing.T) {
	h := newHarness(t)
	h.write(t, h.opts.Settings.Agent2.Config, agent2Conf)

	res, err := Convert(h.opts)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, agent2Conf, h.read(t, h.opts.Settings.Agent2.Config))
}

func TestConvert_UnsupportedParameter(t *testing.T) {
	h := newHarness(t)
	cfg := h.opts.Settings
	h.write(t, cfg.Agentd.Config, "Server=zbx\nAllowRoot=1\nStartAgents=3\n")
	h.write(t, cfg.Agent2.Config, agent2Conf)

	_, err := Convert(h.opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedParameter))
	assert.Contains(t, err.Error(), "AllowRoot")
	assert.NotContains(t, err.Error(), "StartAgents")
	assert.False(t, exists(cfg.Agent2.Config+agentconf.BackupSuffix))

	h.opts.Ignore = []string{"AllowRoot"}
	res, err := Convert(h.opts)
	require.NoError(t, err)
	assert.False(t, res.Diff.Add.Has("AllowRoot"))
}

func TestConvert_ConflictWithoutForce(t *testing.T) {
	h := newHarness(t)
	cfg := h.opts.Settings
	extra := filepath.Join(filepath.Dir(cfg.Agent2.Config), "zabbix_agent2.d", "extra.conf")
	h.write(t, cfg.Agentd.Config, "Include="+filepath.Join(filepath.Dir(extra), "*.conf")+"\n")
	h.write(t, cfg.Agent2.Config, agent2Conf)
	h.write(t, extra, "UserParameter=system.cpu.num,nproc\n")

	res, err := Convert(h.opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflictUnresolved))
	assert.Contains(t, err.Error(), extra)
	assert.Contains(t, err.Error(), "system.cpu.num")
	require.NotNil(t, res)
	assert.Equal(t, conflict.Map{{Identity: conflict.Included(extra), Names: []string{"system.cpu.num"}}}, res.Colliding)
	assert.True(t, exists(extra))
}

func TestConvert_ForcedResolveThenRollback(t *testing.T) {
	h := newHarness(t)
	cfg := h.opts.Settings
	extra := filepath.Join(filepath.Dir(cfg.Agent2.Config), "zabbix_agent2.d", "extra.conf")
	h.write(t, cfg.Agentd.Config, "Include="+filepath.Join(filepath.Dir(extra), "*.conf")+"\nUserParameter=agent.ping,echo 1\n")
	h.write(t, cfg.Agent2.Config, agent2Conf)
	h.write(t, extra, "UserParameter=system.cpu.num,nproc\n")
	h.opts.Force = true

	res, err := Convert(h.opts)
	require.NoError(t, err)
	assert.Equal(t, []conflict.Action{
		{Kind: conflict.ActionStrip, Path: cfg.Agent2.Config, Name: "agent.ping"},
		{Kind: conflict.ActionDisable, Path: extra, Target: extra + conflict.DisableSuffix, Name: "system.cpu.num"},
	}, res.Actions)
	assert.False(t, exists(extra))
	assert.NotContains(t, h.read(t, cfg.Agent2.Config), "agent.ping")

	rb, err := Rollback(context.Background(), h.opts)
	require.NoError(t, err)
	assert.Len(t, rb.Restored, 1)
	assert.True(t, exists(extra))
	assert.False(t, exists(extra+conflict.DisableSuffix))
}

func TestConvert_ReportsCollapsedKeys(t *testing.T) {
	h := newHarness(t)
	cfg := h.opts.Settings
	h.write(t, cfg.Agentd.Config, "Server=a\nServer=b\nPidFile=/x\nPidFile=/y\n")
	h.write(t, cfg.Agent2.Config, "Server=a\n")

	res, err := Convert(h.opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Server"}, res.Collapsed)
	assert.Equal(t, "Server = b\n", h.read(t, cfg.Agent2.Config))
}

func TestConvert_BadLegacyConfig(t *testing.T) {
	h := newHarness(t)
	h.write(t, h.opts.Settings.Agentd.Config, "not a directive\n")
	h.write(t, h.opts.Settings.Agent2.Config, agent2Conf)

	_, err := Convert(h.opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, agentconf.ErrFormat))
}

func TestPlan_WritesNothing(t *testing.T) {
	h := newHarness(t)
	cfg := h.opts.Settings
	h.write(t, cfg.Agentd.Config, "Timeout=3\nUserParameter=vm.memory.size,free\nUser=zabbix\n")
	h.write(t, cfg.Agent2.Config, agent2Conf)

	res, err := Plan(h.opts)
	require.NoError(t, err)

	assert.Equal(t, agent2Conf, res.Original)
	assert.Contains(t, res.Rendered, "Timeout = 3\n")
	assert.Contains(t, res.Rendered, "UserParameter = vm.memory.size,free\n")
	assert.Equal(t, []string{"User"}, res.Unsupported)
	assert.Equal(t, conflict.Map{{Identity: conflict.Self(cfg.Agent2.Config), Names: []string{"vm.memory.size"}}}, res.Colliding)
	assert.Len(t, res.Changes, 3)

	assert.Equal(t, agent2Conf, h.read(t, cfg.Agent2.Config))
	assert.False(t, exists(cfg.Agent2.Config+agentconf.BackupSuffix))
}

func TestPlan_Skipped(t *testing.T) {
	h := newHarness(t)
	res, err := Plan(h.opts)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}
