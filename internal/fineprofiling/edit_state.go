// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fineprofiling

import "strconv"

// EditState is the UI-only view of StoreThresholdMillis. It is never sent to
// the backend.
type EditState struct {
	OverrideEnabled bool
	// OverrideValueMillis is nil when the input is empty.
	OverrideValueMillis *int
}

// EditStateFrom derives the edit state for a stored threshold.
func EditStateFrom(storeThresholdMillis int) EditState {
	if storeThresholdMillis == NoOverride {
		return EditState{}
	}
	v := storeThresholdMillis
	return EditState{OverrideEnabled: true, OverrideValueMillis: &v}
}

// Project normalises the edit state and returns it together with the
// StoreThresholdMillis it implies. An enabled override with an empty value
// starts from generalThreshold.
func (s EditState) Project(generalThreshold int) (EditState, int) {
	if !s.OverrideEnabled {
		return EditState{}, NoOverride
	}
	v := generalThreshold
	if s.OverrideValueMillis != nil {
		v = *s.OverrideValueMillis
	}
	return EditState{OverrideEnabled: true, OverrideValueMillis: &v}, v
}

// Clone returns a copy that does not share the value pointer.
func (s EditState) Clone() EditState {
	out := EditState{OverrideEnabled: s.OverrideEnabled}
	if s.OverrideValueMillis != nil {
		v := *s.OverrideValueMillis
		out.OverrideValueMillis = &v
	}
	return out
}

// ValueString renders the override input the way a form field shows it.
func (s EditState) ValueString() string {
	if s.OverrideValueMillis == nil {
		return ""
	}
	return strconv.Itoa(*s.OverrideValueMillis)
}
