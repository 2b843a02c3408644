package agentconf

import "sort"

// KeySet is a set of config keys. The zero value is an empty, read-only set.
type KeySet map[string]struct{}

// NewKeySet returns a set holding keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the keys in lexical order.
func (s KeySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Diff holds the keys whose values must be carried from the source config to the target.
type Diff struct {
	// Update holds keys present in both files with at least one differing value.
	Update KeySet
	// Add holds keys present in the source but absent from the target.
	Add KeySet
}

// Compute compares source (legacy) and target entries. Keys in ignore never appear in the result.
func Compute(source []Entry, target []Entry, ignore KeySet) Diff {
	d := Diff{Update: NewKeySet(), Add: NewKeySet()}
	for _, s := range source {
		if ignore.Has(s.Key) {
			continue
		}
		found, differs := false, false
		for _, t := range target {
			if t.Key != s.Key {
				continue
			}
			found = true
			if t.Value != s.Value {
				differs = true
			}
		}
		switch {
		case !found:
			d.Add[s.Key] = struct{}{}
		case differs:
			d.Update[s.Key] = struct{}{}
		}
	}
	return d
}

// Empty reports whether the target already matches the source.
func (d Diff) Empty() bool {
	return len(d.Update) == 0 && len(d.Add) == 0
}

// Items returns the source entries to update and to add, in source order.
func (d Diff) Items(source []Entry) (update []Entry, add []Entry) {
	for _, e := range source {
		switch {
		case d.Update.Has(e.Key):
			update = append(update, e)
		case d.Add.Has(e.Key):
			add = append(add, e)
		}
	}
	return update, add
}
