// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package configform

// State is the form lifecycle position.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoadFailed
	StateLoaded
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoadFailed:
		return "load_failed"
	case StateLoaded:
		return "loaded"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}
