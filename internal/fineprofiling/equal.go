// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fineprofiling

import "github.com/google/go-cmp/cmp"

// Clone returns a deep copy of the config. Config holds only value fields, so
// the copy never aliases the original.
func Clone(in Config) Config {
	return in
}

// Equal reports structural equality of two configs.
func Equal(a, b Config) bool {
	return cmp.Equal(a, b)
}

// EqualEditState reports value equality of two edit states, comparing the
// override value by content rather than by pointer.
func EqualEditState(a, b EditState) bool {
	return cmp.Equal(a, b)
}

// Diff returns a human-readable diff from old to next, or "" when equal.
func Diff(old, next Config) string {
	return cmp.Diff(old, next)
}
