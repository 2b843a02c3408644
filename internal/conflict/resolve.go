package conflict

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// ActionKind describes a filesystem change made by Resolve or Rollback.
type ActionKind string

const (
	// ActionStrip removed UserParameter lines from the main config.
	ActionStrip ActionKind = "strip"
	// ActionDisable renamed an included config to its disabled name.
	ActionDisable ActionKind = "disable"
	// ActionRestore renamed a disabled config back.
	ActionRestore ActionKind = "restore"
)

// Action records one change. Target is set for renames; Name for strips and disables.
type Action struct {
	Kind   ActionKind
	Path   string
	Target string
	Name   string
}

// Resolve removes every collision in m.
//
// For the main config each colliding name is deleted line by line, in place
// and without a backup. An included config is disabled on its first colliding
// name; its remaining names are not examined.
func Resolve(sys System, m Map, builtins NameSet, log logrus.FieldLogger) ([]Action, error) {
	var actions []Action
	for _, f := range m {
		path := f.Identity.Path
		switch f.Identity.Kind {
		case SelfConfig:
			stripped := make(map[string]bool)
			for _, name := range f.Names {
				if stripped[name] || !builtins.Has(name) {
					continue
				}
				stripped[name] = true
				if err := stripUserParameter(sys, path, name, log); err != nil {
					return actions, fmt.Errorf(messages.ConflictStripFailedFmt, name, path, err)
				}
				actions = append(actions, Action{Kind: ActionStrip, Path: path, Name: name})
			}
		case IncludedConfig:
			for _, name := range f.Names {
				if !builtins.Has(name) {
					continue
				}
				target := path + DisableSuffix
				if err := sys.Rename(path, target); err != nil {
					return actions, fmt.Errorf(messages.ConflictDisableFailedFmt, path, err)
				}
				log.WithFields(logrus.Fields{"file": path, "target": target, "name": name}).
					Info("included config with conflicting UserParameter disabled")
				actions = append(actions, Action{Kind: ActionDisable, Path: path, Target: target, Name: name})
				break
			}
		}
	}
	return actions, nil
}

// Rollback renames every disabled file reachable from the Include directives
// of configPath back to its original name. A marker whose original name is
// taken again is left in place.
func Rollback(sys System, configPath string, log logrus.FieldLogger) ([]Action, error) {
	entries, err := agentconf.ParseFile(sys, configPath, agentconf.ParseOptions{AllowDuplicateKeys: true})
	if err != nil {
		return nil, err
	}

	var actions []Action
	done := make(map[string]bool)
	for _, pattern := range includePatterns(configPath, entries) {
		markers, err := disabledMarkers(sys, pattern)
		if err != nil {
			return actions, fmt.Errorf(messages.ConflictGlobFailedFmt, pattern, configPath, err)
		}
		for _, marker := range markers {
			if done[marker] {
				continue
			}
			done[marker] = true

			original := strings.TrimSuffix(marker, DisableSuffix)
			_, err := sys.Stat(original)
			if err == nil {
				log.WithFields(logrus.Fields{"file": marker, "original": original}).
					Warn("original name exists again; disabled config left in place")
				continue
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return actions, fmt.Errorf(messages.ConflictRestoreFailedFmt, marker, err)
			}
			if err := sys.Rename(marker, original); err != nil {
				return actions, fmt.Errorf(messages.ConflictRestoreFailedFmt, marker, err)
			}
			log.WithFields(logrus.Fields{"file": marker, "target": original}).Info("disabled config restored")
			actions = append(actions, Action{Kind: ActionRestore, Path: marker, Target: original})
		}
	}
	return actions, nil
}

// disabledMarkers lists the disabled files Resolve could have produced from
// pattern. It walks the same expansion as expandInclude: a file match is
// disabled in place, a directory match holds disabled files directly inside it.
func disabledMarkers(sys System, pattern string) ([]string, error) {
	markers, err := sys.Glob(pattern + DisableSuffix)
	if err != nil {
		return nil, err
	}
	matches, err := sys.Glob(pattern)
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		info, err := sys.Stat(match)
		if err != nil || !info.IsDir() {
			continue
		}
		inner, err := sys.Glob(filepath.Join(match, "*"+DisableSuffix))
		if err != nil {
			return nil, err
		}
		markers = append(markers, inner...)
	}
	return markers, nil
}

// stripUserParameter rewrites path without the lines declaring name.
func stripUserParameter(sys System, path string, name string, log logrus.FieldLogger) error {
	info, err := sys.Stat(path)
	if err != nil {
		return fmt.Errorf(messages.AgentConfStatFailedFmt, agentconf.ErrIO, path, err)
	}
	data, err := sys.ReadFile(path)
	if err != nil {
		return fmt.Errorf(messages.AgentConfReadFailedFmt, agentconf.ErrIO, path, err)
	}

	kept := stripDeclarations(string(data), name, func(line string) {
		log.WithFields(logrus.Fields{"file": path, "name": name, "line": line}).
			Info("conflicting UserParameter removed")
	})

	if err := sys.WriteFileAtomic(path, []byte(kept), info.Mode().Perm()); err != nil {
		return fmt.Errorf(messages.AgentConfWriteFailedFmt, agentconf.ErrIO, path, err)
	}
	return nil
}

// entryState tracks which entry an indented continuation line belongs to.
type entryState int

const (
	noEntry entryState = iota
	otherEntry
	userParameterEntry
	// droppedUserParameter is a UserParameter entry whose head line was removed.
	droppedUserParameter
)

var userParameterHead = regexp.MustCompile(`^\s*` + userParameterKey + `\s*=`)

// stripDeclarations removes every declaration of name from content, both
// head lines and stacked continuation lines. When a head line goes, the
// first surviving continuation line becomes the new head.
func stripDeclarations(content, name string, removed func(line string)) string {
	head := regexp.MustCompile(`^\s*` + userParameterKey + `\s*=\s*` + regexp.QuoteMeta(name) + `\s*,`)
	var kept strings.Builder
	state := noEntry
	for _, line := range strings.SplitAfter(content, "\n") {
		body := strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(body)
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";"):
			state = noEntry
		case state != noEntry && (body[0] == ' ' || body[0] == '\t') && !strings.Contains(trimmed, "="):
			if state == otherEntry {
				break
			}
			if decl, _, _ := strings.Cut(trimmed, ","); strings.TrimSpace(decl) == name {
				removed(trimmed)
				continue
			}
			if state == droppedUserParameter {
				kept.WriteString(userParameterKey + "=" + trimmed + line[len(body):])
				state = userParameterEntry
				continue
			}
		case head.MatchString(body):
			removed(trimmed)
			state = droppedUserParameter
			continue
		case userParameterHead.MatchString(body):
			state = userParameterEntry
		default:
			state = otherEntry
		}
		kept.WriteString(line)
	}
	return kept.String()
}
