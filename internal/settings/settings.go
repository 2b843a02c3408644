// Package settings loads the tool's own configuration: where each agent lives,
// which keys the conversion skips, and host-level limits.
package settings

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// DefaultPath is read when present and no --config flag is given.
const DefaultPath = "/etc/agent2upgrade.toml"

// ErrSettingsInvalid wraps TOML syntax, unknown-key and validation failures.
var ErrSettingsInvalid = errors.New("settings invalid")

//go:embed defaults.toml
var defaultsTOML []byte

// Settings is the decoded settings file layered over the embedded defaults.
type Settings struct {
	Agentd  Agentd  `toml:"agentd"`
	Agent2  Agent2  `toml:"agent2"`
	Convert Convert `toml:"convert"`
	Host    Host    `toml:"host"`
	Log     Log     `toml:"log"`
}

// Agentd locates the legacy agent.
type Agentd struct {
	Binary  string `toml:"binary"`
	Config  string `toml:"config"`
	Service string `toml:"service"`
}

// Agent2 locates the successor agent and names its package.
type Agent2 struct {
	Binary  string `toml:"binary"`
	Config  string `toml:"config"`
	Service string `toml:"service"`
	Package string `toml:"package"`
}

// Convert tunes configuration conversion.
type Convert struct {
	IgnoreKeys []string `toml:"ignore_keys"`
}

// Host holds platform checks and collaborator settings.
type Host struct {
	SupportedOS         []string `toml:"supported_os"`
	SystemdSocket       string   `toml:"systemd_socket"`
	ProbeTimeoutSeconds int      `toml:"probe_timeout_seconds"`
}

// Log configures the root logger.
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Defaults returns the embedded default settings.
func Defaults() (*Settings, error) {
	s, err := decode(nil, defaultsTOML, "defaults.toml")
	if err != nil {
		return nil, fmt.Errorf(messages.SettingsDefaultsInvalidFmt, err)
	}
	return s, nil
}

// Load reads path and layers it over the defaults. The file must exist.
func Load(path string) (*Settings, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf(messages.SettingsExpandPathFmt, path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf(messages.SettingsReadFailedFmt, expanded, err)
	}
	base, err := Defaults()
	if err != nil {
		return nil, err
	}
	return decode(base, data, expanded)
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Settings, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf(messages.SettingsExpandPathFmt, path, err)
	}
	if _, err := os.Stat(expanded); errors.Is(err, os.ErrNotExist) {
		return Defaults()
	}
	return Load(expanded)
}

// decode strictly decodes data over base (or an empty Settings), then expands
// and validates the result. source names the input in errors.
func decode(base *Settings, data []byte, source string) (*Settings, error) {
	s := base
	if s == nil {
		s = &Settings{}
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf(messages.SettingsInvalidFmt, ErrSettingsInvalid, source, err)
	}
	if err := s.expandPaths(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettingsInvalid, err)
	}
	if err := s.Validate(source); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettingsInvalid, err)
	}
	return s, nil
}

// Validate ensures every path and service name is set and the limits are usable.
func (s *Settings) Validate(source string) error {
	required := []struct {
		name  string
		value string
	}{
		{"agentd.binary", s.Agentd.Binary},
		{"agentd.config", s.Agentd.Config},
		{"agentd.service", s.Agentd.Service},
		{"agent2.binary", s.Agent2.Binary},
		{"agent2.config", s.Agent2.Config},
		{"agent2.service", s.Agent2.Service},
		{"agent2.package", s.Agent2.Package},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf(messages.SettingsRequiredFmt, source, r.name)
		}
	}
	if s.Host.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf(messages.SettingsProbeTimeoutFmt, source, s.Host.ProbeTimeoutSeconds)
	}
	if len(s.Host.SupportedOS) == 0 {
		return fmt.Errorf(messages.SettingsSupportedOSEmptyFmt, source)
	}
	if _, err := logrus.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf(messages.SettingsLogLevelFmt, source, s.Log.Level, err)
	}
	return nil
}

// IgnoreSet returns convert.ignore_keys plus extra as a key set.
func (s *Settings) IgnoreSet(extra ...string) agentconf.KeySet {
	keys := make([]string, 0, len(s.Convert.IgnoreKeys)+len(extra))
	keys = append(keys, s.Convert.IgnoreKeys...)
	keys = append(keys, extra...)
	return agentconf.NewKeySet(keys...)
}

// ProbeTimeout returns host.probe_timeout_seconds as a duration.
func (s *Settings) ProbeTimeout() time.Duration {
	return time.Duration(s.Host.ProbeTimeoutSeconds) * time.Second
}

func (s *Settings) expandPaths() error {
	for _, p := range []*string{
		&s.Agentd.Binary, &s.Agentd.Config,
		&s.Agent2.Binary, &s.Agent2.Config,
		&s.Host.SystemdSocket, &s.Log.File,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf(messages.SettingsExpandPathFmt, *p, err)
		}
		*p = expanded
	}
	return nil
}
