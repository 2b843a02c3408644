package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent2upgrade.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	s, err := Defaults()
	require.NoError(t, err)

	assert.Equal(t, "/usr/sbin/zabbix_agentd", s.Agentd.Binary)
	assert.Equal(t, "/etc/zabbix/zabbix_agentd.conf", s.Agentd.Config)
	assert.Equal(t, "zabbix-agent", s.Agentd.Service)
	assert.Equal(t, "/usr/sbin/zabbix_agent2", s.Agent2.Binary)
	assert.Equal(t, "/etc/zabbix/zabbix_agent2.conf", s.Agent2.Config)
	assert.Equal(t, "zabbix-agent2", s.Agent2.Service)
	assert.Equal(t, "zabbix-agent2", s.Agent2.Package)
	assert.Equal(t, []string{"PidFile", "StartAgents"}, s.Convert.IgnoreKeys)
	assert.Equal(t, []string{"el7"}, s.Host.SupportedOS)
	assert.Equal(t, 10*time.Second, s.ProbeTimeout())
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	path := writeSettings(t, `
[agent2]
config = "/opt/zabbix/zabbix_agent2.conf"

[convert]
ignore_keys = ["PidFile"]

[host]
supported_os = ["el7", "el8"]
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/zabbix/zabbix_agent2.conf", s.Agent2.Config)
	assert.Equal(t, "/usr/sbin/zabbix_agent2", s.Agent2.Binary)
	assert.Equal(t, []string{"PidFile"}, s.Convert.IgnoreKeys)
	assert.Equal(t, []string{"el7", "el8"}, s.Host.SupportedOS)
	assert.Equal(t, "zabbix-agent", s.Agentd.Service)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeSettings(t, "[agent2]\nbinnary = \"/usr/sbin/zabbix_agent2\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSettingsInvalid))
	assert.Contains(t, err.Error(), path)
}

func TestLoad_SyntaxError(t *testing.T) {
	path := writeSettings(t, "[agent2\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSettingsInvalid))
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty service", "[agentd]\nservice = \"\"\n", "agentd.service is required"},
		{"empty package", "[agent2]\npackage = \"\"\n", "agent2.package is required"},
		{"zero timeout", "[host]\nprobe_timeout_seconds = 0\n", "probe_timeout_seconds must be positive"},
		{"no platforms", "[host]\nsupported_os = []\n", "supported_os must list"},
		{"bad log level", "[log]\nlevel = \"loud\"\n", "log.level \"loud\" is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSettings(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSettingsInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadOrDefault(t *testing.T) {
	s, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "zabbix-agent2", s.Agent2.Service)

	path := writeSettings(t, "[agent2]\nservice = \"agent2\"\n")
	s, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "agent2", s.Agent2.Service)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	path := writeSettings(t, "[log]\nfile = \"~/agent2upgrade.log\"\n")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "agent2upgrade.log"), s.Log.File)
}

func TestIgnoreSet(t *testing.T) {
	s, err := Defaults()
	require.NoError(t, err)

	ignore := s.IgnoreSet("Timeout")
	assert.Equal(t, []string{"PidFile", "StartAgents", "Timeout"}, ignore.Sorted())
}
