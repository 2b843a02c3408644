// Package agentconf reads, compares and rewrites zabbix agent configuration files.
//
// The format is a flat list of `Key=Value` lines with `#` comments. Some keys
// (UserParameter, Include) are legitimately repeated, so parsing either keeps
// every occurrence or lets a later occurrence shadow an earlier one, depending
// on ParseOptions.
package agentconf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conn-castle/agent2upgrade/internal/messages"
)

var (
	// ErrIO wraps every read, stat or write failure on a config file.
	ErrIO = errors.New("config file i/o failed")
	// ErrFormat wraps lines that are neither comments, blank, `key = value` nor a bare key.
	ErrFormat = errors.New("invalid config format")
)

// Entry is one directive from an agent configuration file.
type Entry struct {
	Key   string
	Value string
}

// ParseOptions controls how repeated keys are handled.
type ParseOptions struct {
	// AllowDuplicateKeys keeps every occurrence of a repeated key as its own entry.
	// When false, a later occurrence replaces the value of the first one and keeps its position.
	AllowDuplicateKeys bool
}

// ParseFile reads path through sys and parses it.
func ParseFile(sys System, path string, opts ParseOptions) ([]Entry, error) {
	if sys == nil {
		return nil, errors.New(messages.AgentConfSystemRequired)
	}
	data, err := sys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.AgentConfReadFailedFmt, ErrIO, path, err)
	}
	entries, err := Parse(string(data), opts)
	if err != nil {
		return nil, fmt.Errorf(messages.AgentConfParseFailedFmt, path, err)
	}
	return entries, nil
}

// Parse parses config content into entries in file order.
//
// An indented line without '=' directly following an entry continues that
// entry's value; the pieces are joined with "\n".
func Parse(content string, opts ParseOptions) ([]Entry, error) {
	var entries []Entry
	first := make(map[string]int)
	continues := -1

	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			continues = -1
			continue
		}
		if continues >= 0 && isIndented(line) && !strings.Contains(trimmed, "=") {
			entries[continues].Value += "\n" + trimmed
			continue
		}

		key, value, err := parseLine(trimmed)
		if err != nil {
			return nil, fmt.Errorf(messages.AgentConfLineErrorFmt, ErrFormat, i+1, err)
		}
		if !opts.AllowDuplicateKeys {
			if idx, ok := first[key]; ok {
				entries[idx].Value = value
				continues = idx
				continue
			}
			first[key] = len(entries)
		}
		entries = append(entries, Entry{Key: key, Value: value})
		continues = len(entries) - 1
	}
	return entries, nil
}

// Values returns every value recorded for key, in order.
func Values(entries []Entry, key string) []string {
	var out []string
	for _, e := range entries {
		if e.Key == key {
			out = append(out, e.Value)
		}
	}
	return out
}

// parseLine splits a trimmed, non-comment line into key and value.
func parseLine(trimmed string) (string, string, error) {
	idx := strings.IndexByte(trimmed, '=')
	if idx < 0 {
		if strings.ContainsAny(trimmed, " \t") {
			return "", "", fmt.Errorf(messages.AgentConfBadKeyFmt, trimmed)
		}
		return trimmed, "", nil
	}
	key := strings.TrimSpace(trimmed[:idx])
	if key == "" {
		return "", "", errors.New(messages.AgentConfEmptyKey)
	}
	if strings.ContainsAny(key, " \t") {
		return "", "", fmt.Errorf(messages.AgentConfBadKeyFmt, trimmed)
	}
	return key, strings.TrimSpace(trimmed[idx+1:]), nil
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";")
}

func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}
