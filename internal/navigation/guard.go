// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package navigation

// DiscardPrompt is the question put to the user before unsaved edits are lost.
const DiscardPrompt = "You have unsaved changes, are you sure you want to navigate away from this page?"

// ChangeChecker reports unsaved edits.
type ChangeChecker interface {
	HasChanges() bool
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ConfirmIfHasChanges returns a listener that prevents navigation when the
// checker has unsaved changes and the user declines to discard them.
func ConfirmIfHasChanges(checker ChangeChecker, confirmer Confirmer) Listener {
	return func(ev *Event) {
		if !checker.HasChanges() {
			return
		}
		if !confirmer.Confirm(DiscardPrompt) {
			ev.Prevent()
		}
	}
}
