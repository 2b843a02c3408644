package upgrade

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
	"github.com/conn-castle/agent2upgrade/internal/conflict"
	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// ConvertResult describes what Convert did.
type ConvertResult struct {
	// Skipped is set when there is no legacy config to convert.
	Skipped bool
	Diff    agentconf.Diff
	Changes []agentconf.Change
	// Backup is the backup path, empty when nothing was written.
	Backup string
	// Collapsed lists legacy keys set more than once; only their last value is carried over.
	Collapsed []string
	// Conflicts is every scanned file with all of its UserParameter names.
	Conflicts conflict.Map
	// Colliding is Conflicts reduced to builtin names.
	Colliding conflict.Map
	Actions   []conflict.Action
}

// PlanResult is a dry run of Convert.
type PlanResult struct {
	Skipped     bool
	LegacyPath  string
	TargetPath  string
	Diff        agentconf.Diff
	Changes     []agentconf.Change
	Original    string
	Rendered    string
	Collapsed   []string
	Unsupported []string
	Conflicts   conflict.Map
	Colliding   conflict.Map
}

// analysis is the read-only half of a conversion.
type analysis struct {
	diff        agentconf.Diff
	update, add []agentconf.Entry
	collapsed   []string
	unsupported []string
}

// Convert carries the legacy config into the agent 2 config and checks the
// result for UserParameter collisions, resolving them when forced.
func Convert(opts Options) (*ConvertResult, error) {
	u, err := newUpgrader(opts)
	if err != nil {
		return nil, err
	}
	return u.convert()
}

// Plan reports what Convert would change without writing anything.
func Plan(opts Options) (*PlanResult, error) {
	u, err := newUpgrader(opts)
	if err != nil {
		return nil, err
	}
	return u.plan()
}

func (u *upgrader) convert() (*ConvertResult, error) {
	legacyPath, targetPath := u.cfg.Agentd.Config, u.cfg.Agent2.Config
	present, err := u.isFile(legacyPath)
	if err != nil {
		return nil, err
	}
	if !present {
		u.log.WithField("file", legacyPath).Warn("legacy config not found, conversion skipped")
		return &ConvertResult{Skipped: true}, nil
	}

	ignore := u.ignoreSet()
	a, err := u.analyze(legacyPath, targetPath, ignore)
	if err != nil {
		return nil, err
	}
	if len(a.unsupported) > 0 {
		return nil, fmt.Errorf(messages.UpgradeUnsupportedParamFmt, ErrUnsupportedParameter, legacyPath, strings.Join(a.unsupported, ", "))
	}

	res := &ConvertResult{Diff: a.diff, Collapsed: a.collapsed}
	if a.diff.Empty() {
		u.log.WithField("file", targetPath).Info("agent 2 config already matches legacy config")
	} else {
		u.log.WithFields(logrus.Fields{"update": a.diff.Update.Sorted(), "add": a.diff.Add.Sorted()}).Debug("config diff")
		changes, err := agentconf.ApplyDiff(u.sys, targetPath, a.update, a.add, ignore, u.log)
		if err != nil {
			return nil, err
		}
		res.Changes = changes
		res.Backup = targetPath + agentconf.BackupSuffix
	}

	hasConflict, m, err := conflict.Find(u.sys, targetPath, u.builtins, u.log)
	if err != nil {
		return res, err
	}
	res.Conflicts = m
	res.Colliding = conflict.Colliding(m, u.builtins)
	for _, f := range m {
		u.log.WithFields(logrus.Fields{"file": f.Identity.String(), "names": f.Names}).Debug("UserParameter declarations")
	}
	if !hasConflict {
		return res, nil
	}

	u.log.WithField("files", len(res.Colliding)).Warn("UserParameter collides with agent 2 builtin keys")
	if !u.opts.Force {
		return res, fmt.Errorf(messages.UpgradeConflictUnresolvedFmt, ErrConflictUnresolved, describeColliding(res.Colliding))
	}
	actions, err := conflict.Resolve(u.sys, m, u.builtins, u.log)
	res.Actions = actions
	if err != nil {
		return res, err
	}
	return res, nil
}

func (u *upgrader) plan() (*PlanResult, error) {
	legacyPath, targetPath := u.cfg.Agentd.Config, u.cfg.Agent2.Config
	res := &PlanResult{LegacyPath: legacyPath, TargetPath: targetPath}
	present, err := u.isFile(legacyPath)
	if err != nil {
		return nil, err
	}
	if !present {
		res.Skipped = true
		return res, nil
	}

	ignore := u.ignoreSet()
	a, err := u.analyze(legacyPath, targetPath, ignore)
	if err != nil {
		return nil, err
	}
	res.Diff = a.diff
	res.Collapsed = a.collapsed
	res.Unsupported = a.unsupported

	original, err := u.sys.ReadFile(targetPath)
	if err != nil {
		return nil, fmt.Errorf(messages.AgentConfReadFailedFmt, agentconf.ErrIO, targetPath, err)
	}
	res.Original = string(original)
	res.Rendered = res.Original
	if !a.diff.Empty() {
		res.Rendered, res.Changes = agentconf.Render(res.Original, a.update, a.add, ignore)
	}

	entries, err := agentconf.Parse(res.Rendered, agentconf.ParseOptions{AllowDuplicateKeys: true})
	if err != nil {
		return nil, fmt.Errorf(messages.AgentConfParseFailedFmt, targetPath, err)
	}
	_, m, err := conflict.FindEntries(u.sys, targetPath, entries, u.builtins, u.log)
	if err != nil {
		return nil, err
	}
	res.Conflicts = m
	res.Colliding = conflict.Colliding(m, u.builtins)
	return res, nil
}

// analyze parses both configs and computes the diff and the items to write.
func (u *upgrader) analyze(legacyPath, targetPath string, ignore agentconf.KeySet) (*analysis, error) {
	all, err := agentconf.ParseFile(u.sys, legacyPath, agentconf.ParseOptions{AllowDuplicateKeys: true})
	if err != nil {
		return nil, err
	}
	source, err := agentconf.ParseFile(u.sys, legacyPath, agentconf.ParseOptions{})
	if err != nil {
		return nil, err
	}
	target, err := agentconf.ParseFile(u.sys, targetPath, agentconf.ParseOptions{})
	if err != nil {
		return nil, err
	}

	a := &analysis{
		diff:        agentconf.Compute(source, target, ignore),
		collapsed:   collapsedKeys(all, ignore),
		unsupported: conflict.UnsupportedIn(source, ignore),
	}
	a.update, a.add = a.diff.Items(source)
	if len(a.collapsed) > 0 {
		u.log.WithFields(logrus.Fields{"file": legacyPath, "keys": a.collapsed}).
			Warn("keys set more than once in legacy config, only the last value is carried over")
	}
	return a, nil
}

// collapsedKeys lists keys with more than one entry, in first-seen order.
func collapsedKeys(entries []agentconf.Entry, ignore agentconf.KeySet) []string {
	count := make(map[string]int)
	var order []string
	for _, e := range entries {
		if ignore.Has(e.Key) {
			continue
		}
		if count[e.Key] == 0 {
			order = append(order, e.Key)
		}
		count[e.Key]++
	}
	var out []string
	for _, k := range order {
		if count[k] > 1 {
			out = append(out, k)
		}
	}
	return out
}

func describeColliding(m conflict.Map) string {
	parts := make([]string, 0, len(m))
	for _, f := range m {
		parts = append(parts, f.Identity.String()+" ("+strings.Join(f.Names, ", ")+")")
	}
	return strings.Join(parts, "; ")
}
