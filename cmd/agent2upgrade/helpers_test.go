package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/agent2upgrade/internal/conflict"
	"github.com/conn-castle/agent2upgrade/internal/host"
	"github.com/conn-castle/agent2upgrade/internal/upgrade"
)

type fakeServices struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeServices) Perform(_ context.Context, action host.Action, service string) bool {
	call := string(action) + " " + service
	f.calls = append(f.calls, call)
	return !f.fail[call]
}

type fakePackages struct {
	calls []string
}

func (f *fakePackages) Install(_ context.Context, source string) bool {
	f.calls = append(f.calls, "install "+source)
	return true
}

func (f *fakePackages) Remove(_ context.Context, name string) bool {
	f.calls = append(f.calls, "remove "+name)
	return true
}

type fakeProbe struct{}

func (fakeProbe) Probe(context.Context, string, time.Duration) bool { return true }

type fakeOS struct{}

func (fakeOS) Detect() (string, error) { return "el7", nil }

// cliEnv is a settings file whose agent paths all live in a temp dir, with
// the host collaborators replaced by fakes.
type cliEnv struct {
	dir          string
	settingsPath string
	legacyBinary string
	legacyConfig string
	agent2Binary string
	agent2Config string
	services     *fakeServices
	packages     *fakePackages
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	e := &cliEnv{
		dir:          dir,
		settingsPath: filepath.Join(dir, "agent2upgrade.toml"),
		legacyBinary: filepath.Join(dir, "sbin", "zabbix_agentd"),
		legacyConfig: filepath.Join(dir, "etc", "zabbix_agentd.conf"),
		agent2Binary: filepath.Join(dir, "sbin", "zabbix_agent2"),
		agent2Config: filepath.Join(dir, "etc", "zabbix_agent2.conf"),
		services:     &fakeServices{fail: map[string]bool{}},
		packages:     &fakePackages{},
	}
	e.write(t, e.settingsPath, fmt.Sprintf(`[agentd]
binary = '%s'
config = '%s'

[agent2]
binary = '%s'
config = '%s'
`, e.legacyBinary, e.legacyConfig, e.agent2Binary, e.agent2Config))

	orig := attachHost
	attachHost = func(opts *upgrade.Options) {
		opts.System = conflict.RealSystem{}
		opts.Services = e.services
		opts.Packages = e.packages
		opts.Probe = fakeProbe{}
		opts.OS = fakeOS{}
	}
	t.Cleanup(func() { attachHost = orig })
	return e
}

func (e *cliEnv) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (e *cliEnv) read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// run executes subcommand with --config pointing at the env's settings.
func (e *cliEnv) run(subcommand string, args ...string) (string, string, error) {
	argv := append([]string{"agent2upgrade", subcommand, "--config", e.settingsPath}, args...)
	var stdout, stderr bytes.Buffer
	err := execute(argv, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}
