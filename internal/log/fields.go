// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Request fields
	FieldMethod   = "method"
	FieldURL      = "url"
	FieldStatus   = "status"
	FieldDuration = "duration"
	FieldProxy    = "proxy"

	// Probe fields
	FieldCheck       = "check"
	FieldConcurrency = "concurrency"
)
