package agentconf

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// BackupSuffix is appended to a config path to name its pre-rewrite snapshot.
const BackupSuffix = ".agent2upgrade.bak"

// ChangeKind describes how a rendered line came to be.
type ChangeKind string

const (
	// ChangeUpdate replaced an existing `key = value` line.
	ChangeUpdate ChangeKind = "update"
	// ChangeInsert placed a new line right after its commented-out template.
	ChangeInsert ChangeKind = "insert"
	// ChangeAppend placed a new line at the end of the file.
	ChangeAppend ChangeKind = "append"
)

// Change records one line written by Render.
type Change struct {
	Kind     ChangeKind
	Key      string
	OldValue string
	NewValue string
	// Line is the 1-based line number the line was written at. Later inserts may shift it.
	Line int
}

// Render applies update and add items to content and returns the new content.
//
// Every line assigning an update key is replaced by a canonical `key = value`
// line; a line takes at most one update. Each add item goes right after the
// first `# key = ...` template line, or at the end of the file when there is
// none. Items whose key is in ignore are skipped. Comments, blank lines and
// line order are otherwise preserved byte for byte.
func Render(content string, update []Entry, add []Entry, ignore KeySet) (string, []Change) {
	lines := splitLines(content)
	var changes []Change

	type matcher struct {
		entry Entry
		re    *regexp.Regexp
	}
	var updaters []matcher
	for _, item := range update {
		if ignore.Has(item.Key) {
			continue
		}
		updaters = append(updaters, matcher{
			entry: item,
			re:    regexp.MustCompile(`^\s*` + regexp.QuoteMeta(item.Key) + `\s*=\s*(.*?)\s*$`),
		})
	}
	for i, line := range lines {
		for _, u := range updaters {
			m := u.re.FindStringSubmatch(trimEOL(line))
			if m == nil {
				continue
			}
			lines[i] = canonicalLine(u.entry)
			changes = append(changes, Change{
				Kind:     ChangeUpdate,
				Key:      u.entry.Key,
				OldValue: m[1],
				NewValue: u.entry.Value,
				Line:     i + 1,
			})
			break
		}
	}

	for _, item := range add {
		if ignore.Has(item.Key) {
			continue
		}
		template := regexp.MustCompile(`^\s*#\s*` + regexp.QuoteMeta(item.Key) + `\s*=.*$`)
		at := -1
		for i, line := range lines {
			if template.MatchString(trimEOL(line)) {
				at = i
				break
			}
		}
		if at >= 0 {
			lines = append(lines[:at+1], append([]string{canonicalLine(item)}, lines[at+1:]...)...)
			changes = append(changes, Change{Kind: ChangeInsert, Key: item.Key, NewValue: item.Value, Line: at + 2})
			continue
		}
		if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
			lines[n-1] += "\n"
		}
		lines = append(lines, canonicalLine(item))
		changes = append(changes, Change{Kind: ChangeAppend, Key: item.Key, NewValue: item.Value, Line: len(lines)})
	}

	return strings.Join(lines, ""), changes
}

// ApplyDiff rewrites path with update and add items, writing path+BackupSuffix
// with the original bytes first. The backup is written even when nothing changes.
func ApplyDiff(sys System, path string, update []Entry, add []Entry, ignore KeySet, log logrus.FieldLogger) ([]Change, error) {
	if sys == nil {
		return nil, errors.New(messages.AgentConfSystemRequired)
	}
	info, err := sys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf(messages.AgentConfStatFailedFmt, ErrIO, path, err)
	}
	original, err := sys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.AgentConfReadFailedFmt, ErrIO, path, err)
	}

	rendered, changes := Render(string(original), update, add, ignore)
	for _, c := range changes {
		log.WithFields(logrus.Fields{
			"file": path,
			"key":  c.Key,
			"old":  c.OldValue,
			"new":  c.NewValue,
			"line": c.Line,
			"kind": c.Kind,
		}).Info("config item changed")
	}

	backup := path + BackupSuffix
	if err := sys.WriteFileAtomic(backup, original, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf(messages.AgentConfWriteFailedFmt, ErrIO, backup, err)
	}
	log.WithFields(logrus.Fields{"file": path, "backup": backup}).Info("config backup written")

	if err := sys.WriteFileAtomic(path, []byte(rendered), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf(messages.AgentConfWriteFailedFmt, ErrIO, path, err)
	}
	return changes, nil
}

func canonicalLine(e Entry) string {
	return fmt.Sprintf("%s = %s\n", e.Key, e.Value)
}

// splitLines splits content after each newline, keeping the terminators.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}
