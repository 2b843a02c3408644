package conflict

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/conn-castle/agent2upgrade/internal/agentconf"
)

//go:embed builtin_keys.txt
var builtinKeys string

//go:embed unsupported_keys.txt
var unsupportedKeys string

// NameSet is an immutable set of item keys or parameter names.
type NameSet struct {
	names map[string]struct{}
}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := NameSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of names in the set.
func (s NameSet) Len() int {
	return len(s.names)
}

// Builtins returns the item keys agent 2 serves natively.
var Builtins = sync.OnceValue(func() NameSet {
	return parseNameList(builtinKeys)
})

// Unsupported returns the legacy parameters agent 2 cannot express.
var Unsupported = sync.OnceValue(func() NameSet {
	return parseNameList(unsupportedKeys)
})

// UnsupportedIn lists the unsupported parameters set by entries, in file order.
// Keys in ignore are skipped.
func UnsupportedIn(entries []agentconf.Entry, ignore agentconf.KeySet) []string {
	unsupported := Unsupported()
	var out []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Key] || ignore.Has(e.Key) || !unsupported.Has(e.Key) {
			continue
		}
		seen[e.Key] = true
		out = append(out, e.Key)
	}
	return out
}

// parseNameList reads one name per line; blank lines and # comments are skipped.
func parseNameList(data string) NameSet {
	var names []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return NewNameSet(names...)
}
