package nodeconfig

import (
	"fmt"
	"strings"
)

// Mismatch is a config key whose value is neither its default nor its target.
type Mismatch struct {
	Key  string
	Want string
	Got  string
}

// DefaultMismatchError is returned by Rebind when a key does not hold its
// expected default. The config file is not modified.
type DefaultMismatchError struct {
	Path       string
	Mismatches []Mismatch
}

func (e *DefaultMismatchError) Error() string {
	keys := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		keys[i] = fmt.Sprintf("%s=%q (want %q)", m.Key, m.Got, m.Want)
	}
	return fmt.Sprintf("%s: unexpected defaults: %s", e.Path, strings.Join(keys, ", "))
}

// Keys returns the mismatched key names.
func (e *DefaultMismatchError) Keys() []string {
	keys := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		keys[i] = m.Key
	}
	return keys
}

// RecoveryHint suggests re-initializing the node home.
func (e *DefaultMismatchError) RecoveryHint() string {
	return "the node home was not freshly initialized; rerun with --yes to wipe it"
}
