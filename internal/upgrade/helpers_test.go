package upgrade

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/agent2upgrade/internal/conflict"
	"github.com/conn-castle/agent2upgrade/internal/host"
	"github.com/conn-castle/agent2upgrade/internal/logging"
	"github.com/conn-castle/agent2upgrade/internal/settings"
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
	calls      []string
	failRemove bool
	failInst   bool
}

func (f *fakePackages) Install(_ context.Context, source string) bool {
	f.calls = append(f.calls, "install "+source)
	return !f.failInst
}

func (f *fakePackages) Remove(_ context.Context, name string) bool {
	f.calls = append(f.calls, "remove "+name)
	return !f.failRemove
}

type fakeProbe struct {
	reachable bool
	timeout   time.Duration
}

func (f *fakeProbe) Probe(_ context.Context, _ string, timeout time.Duration) bool {
	f.timeout = timeout
	return f.reachable
}

type fakeOS struct {
	platform string
	err      error
}

func (f fakeOS) Detect() (string, error) {
	return f.platform, f.err
}

type fakeRunner struct {
	out   string
	err   error
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

type harness struct {
	dir      string
	opts     Options
	services *fakeServices
	packages *fakePackages
	probe    *fakeProbe
	runner   *fakeRunner
	out      *bytes.Buffer
}

// newHarness points every settings path into a temp dir. No binaries or
// configs exist until the test writes them.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg, err := settings.Defaults()
	require.NoError(t, err)
	cfg.Agentd.Binary = filepath.Join(dir, "sbin", "zabbix_agentd")
	cfg.Agentd.Config = filepath.Join(dir, "zabbix", "zabbix_agentd.conf")
	cfg.Agent2.Binary = filepath.Join(dir, "sbin", "zabbix_agent2")
	cfg.Agent2.Config = filepath.Join(dir, "zabbix", "zabbix_agent2.conf")

	h := &harness{
		dir:      dir,
		services: &fakeServices{fail: map[string]bool{}},
		packages: &fakePackages{},
		probe:    &fakeProbe{reachable: true},
		runner:   &fakeRunner{out: "zabbix_agentd (daemon) (Zabbix) 5.0.9\n"},
		out:      &bytes.Buffer{},
	}
	h.opts = Options{
		Settings: cfg,
		System:   conflict.RealSystem{},
		Services: h.services,
		Packages: h.packages,
		Probe:    h.probe,
		OS:       fakeOS{platform: "el7"},
		Runner:   h.runner,
		Log:      logging.Discard(),
		Out:      h.out,
		URL:      "http://repo.example.com/zabbix-agent2-5.0.9-1.el7.x86_64.rpm",
	}
	return h
}

func (h *harness) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (h *harness) read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func (h *harness) installLegacy(t *testing.T) {
	h.write(t, h.opts.Settings.Agentd.Binary, "#!/bin/sh\n")
}

func (h *harness) installAgent2(t *testing.T) {
	h.write(t, h.opts.Settings.Agent2.Binary, "#!/bin/sh\n")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
