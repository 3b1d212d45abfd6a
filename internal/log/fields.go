// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldVersion   = "config_version"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// HTTP fields
	FieldStatus  = "status"
	FieldBaseURL = "base_url"
	FieldPath    = "path"

	// Storage fields
	FieldBackend = "store_backend"
)
