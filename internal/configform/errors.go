// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package configform

import (
	"errors"
	"net/http"

	"github.com/ManuGH/informant/internal/httperrors"
)

// User-facing outcomes of Save.
const (
	SavedMessage    = "Saved"
	ConflictMessage = "Someone else has updated this configuration, please reload and try again"
)

var (
	// ErrSaveConflict matches a SaveError caused by HTTP 412.
	ErrSaveConflict = errors.New("configform: concurrent update")
	// ErrSaveInProgress is returned when Save is called while a save is pending.
	ErrSaveInProgress = errors.New("configform: save already in progress")
	// ErrNotLoaded is returned for edits and saves before a successful load.
	ErrNotLoaded = errors.New("configform: configuration not loaded")
	// ErrBusy is returned by Load while a load or save is pending, and by
	// edits and Save while a reload is pending.
	ErrBusy = errors.New("configform: load or save in progress")
	// ErrInvalidOverride rejects negative override values.
	ErrInvalidOverride = errors.New("configform: override threshold must be non-negative")
)

// statusError is implemented by transport errors that carry an HTTP exchange.
type statusError interface {
	error
	StatusCode() int
	ResponseBody() []byte
}

// LoadError is returned when the read endpoint fails.
type LoadError struct {
	HTTP *httperrors.Error
	Err  error
}

func (e *LoadError) Error() string {
	return "load fine profiling config: " + e.HTTP.Headline
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError rejects a save. Message is what the user should see.
type SaveError struct {
	Message  string
	Conflict bool
	// HTTP is nil for conflicts; those are not classified.
	HTTP *httperrors.Error
	Err  error
}

func (e *SaveError) Error() string { return e.Message }

func (e *SaveError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSaveConflict) identify conflicts.
func (e *SaveError) Is(target error) bool {
	return target == ErrSaveConflict && e.Conflict
}

// classify maps err for display. Only errors carrying an exchange (or a
// transport failure, status 0) go through c; anything else failed locally.
func classify(c httperrors.Classifier, err error) *httperrors.Error {
	var se statusError
	if errors.As(err, &se) {
		return c.Get(se.ResponseBody(), se.StatusCode())
	}
	return httperrors.Local(err)
}

func isConflict(err error) bool {
	var se statusError
	return errors.As(err, &se) && se.StatusCode() == http.StatusPreconditionFailed
}
