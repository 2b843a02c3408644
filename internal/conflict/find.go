// Package conflict finds UserParameter declarations that collide with item keys
// agent 2 serves natively, and resolves or reverts them.
//
// A collision in the main config is resolved by deleting the offending lines.
// A collision in an included file is resolved by renaming the whole file with
// DisableSuffix so the agent's Include glob no longer matches it; Rollback
// renames such files back.
package conflict

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// DisableSuffix is appended to an included config to take it out of the agent's view.
const DisableSuffix = ".agent2upgrade.disable"

const (
	userParameterKey = "UserParameter"
	includeKey       = "Include"
)

// IdentityKind distinguishes the main config from files it includes.
type IdentityKind int

const (
	// SelfConfig is the config file named on the command line.
	SelfConfig IdentityKind = iota
	// IncludedConfig is a file reached through an Include directive.
	IncludedConfig
)

// Identity names a config file holding UserParameter declarations.
type Identity struct {
	Kind IdentityKind
	Path string
}

// Self returns the identity of the main config at path.
func Self(path string) Identity {
	return Identity{Kind: SelfConfig, Path: path}
}

// Included returns the identity of an included config at path.
func Included(path string) Identity {
	return Identity{Kind: IncludedConfig, Path: path}
}

// String renders the main config as "@path" and included configs as their path.
func (id Identity) String() string {
	if id.Kind == SelfConfig {
		return "@" + id.Path
	}
	return id.Path
}

// File lists the UserParameter names declared by one config file, in declaration order.
type File struct {
	Identity Identity
	Names    []string
}

// Map holds every scanned file: the main config first, then included files in
// Include then glob order. Each path appears once.
type Map []File

// HasCollision reports whether any file declares a name in builtins.
func (m Map) HasCollision(builtins NameSet) bool {
	for _, f := range m {
		for _, name := range f.Names {
			if builtins.Has(name) {
				return true
			}
		}
	}
	return false
}

// Colliding returns the files of m that declare builtin names, each reduced to those names.
func Colliding(m Map, builtins NameSet) Map {
	var out Map
	for _, f := range m {
		var names []string
		for _, name := range f.Names {
			if builtins.Has(name) {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			out = append(out, File{Identity: f.Identity, Names: names})
		}
	}
	return out
}

// Find scans configPath and the files it includes for UserParameter names.
// It reports whether any name is in builtins.
func Find(sys System, configPath string, builtins NameSet, log logrus.FieldLogger) (bool, Map, error) {
	entries, err := agentconf.ParseFile(sys, configPath, agentconf.ParseOptions{AllowDuplicateKeys: true})
	if err != nil {
		return false, nil, err
	}
	return FindEntries(sys, configPath, entries, builtins, log)
}

// FindEntries is Find for a main config whose entries are already parsed.
// Included files are still read through sys.
func FindEntries(sys System, configPath string, entries []agentconf.Entry, builtins NameSet, log logrus.FieldLogger) (bool, Map, error) {
	m := Map{{Identity: Self(configPath), Names: declaredNames(entries)}}
	seen := map[string]bool{filepath.Clean(configPath): true}

	for _, pattern := range includePatterns(configPath, entries) {
		paths, err := expandInclude(sys, pattern, log)
		if err != nil {
			return false, nil, fmt.Errorf(messages.ConflictGlobFailedFmt, pattern, configPath, err)
		}
		for _, path := range paths {
			if seen[filepath.Clean(path)] {
				continue
			}
			seen[filepath.Clean(path)] = true

			included, err := agentconf.ParseFile(sys, path, agentconf.ParseOptions{AllowDuplicateKeys: true})
			if err != nil {
				return false, nil, fmt.Errorf(messages.ConflictParseIncludeFmt, path, err)
			}
			m = append(m, File{Identity: Included(path), Names: declaredNames(included)})
		}
	}
	return m.HasCollision(builtins), m, nil
}

// includePatterns returns every Include value, with relative ones anchored at
// the directory of configPath.
func includePatterns(configPath string, entries []agentconf.Entry) []string {
	var out []string
	for _, value := range agentconf.Values(entries, includeKey) {
		for _, pattern := range strings.Split(value, "\n") {
			pattern = strings.TrimSpace(pattern)
			if pattern == "" {
				continue
			}
			if !filepath.IsAbs(pattern) {
				pattern = filepath.Join(filepath.Dir(configPath), pattern)
			}
			out = append(out, pattern)
		}
	}
	return out
}

// expandInclude resolves one Include pattern to regular files. A directory
// stands for every file directly inside it, as the agent reads it. Disabled
// files never match.
func expandInclude(sys System, pattern string, log logrus.FieldLogger) ([]string, error) {
	matches, err := sys.Glob(pattern)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, match := range matches {
		info, err := sys.Stat(match)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !strings.HasSuffix(match, DisableSuffix) {
				out = append(out, match)
			}
			continue
		}
		inner, err := sys.Glob(filepath.Join(match, "*"))
		if err != nil {
			return nil, err
		}
		for _, path := range inner {
			if strings.HasSuffix(path, DisableSuffix) {
				continue
			}
			st, err := sys.Stat(path)
			if err != nil {
				return nil, err
			}
			if st.IsDir() {
				log.WithField("path", path).Warn("nested directory under Include skipped")
				continue
			}
			out = append(out, path)
		}
	}
	return out, nil
}

// declaredNames extracts the key of every UserParameter declaration. A value
// may stack several declarations separated by newlines; the key is the text
// before the first comma.
func declaredNames(entries []agentconf.Entry) []string {
	var names []string
	for _, value := range agentconf.Values(entries, userParameterKey) {
		for _, decl := range strings.Split(value, "\n") {
			name, _, _ := strings.Cut(decl, ",")
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			names = append(names, name)
		}
	}
	return names
}
