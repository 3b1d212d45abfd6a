// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package httperrors turns failed HTTP exchanges into a headline and detail
// suitable for showing to a user.
package httperrors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	HeadlineUnreachable   = "Unable to connect to server"
	HeadlineGeneric       = "An error occurred"
	HeadlineRequestFailed = "Unable to send request"

	maxDetailBytes = 512
)

// Error is the classified, display-ready form of a failed request.
type Error struct {
	Status   int    `json:"status"`
	Headline string `json:"headline"`
	Detail   string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Headline
	}
	return e.Headline + ": " + e.Detail
}

// Classifier maps a response body and status code to an Error.
type Classifier interface {
	Get(body []byte, status int) *Error
}

// Default is the classifier used when none is injected.
var Default Classifier = classifier{}

type classifier struct{}

// body shapes the backends emit: {"message","stackTrace"} and RFC 7807.
type errorBody struct {
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

// Get implements Classifier. Status 0 means no response was received.
func (classifier) Get(body []byte, status int) *Error {
	if status == 0 {
		return &Error{Status: 0, Headline: HeadlineUnreachable}
	}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		switch {
		case eb.Message != "":
			return &Error{Status: status, Headline: eb.Message, Detail: eb.StackTrace}
		case eb.Title != "":
			return &Error{Status: status, Headline: eb.Title, Detail: eb.Detail}
		}
	}

	detail := fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		trimmed = truncate(trimmed, maxDetailBytes)
		detail += "\n" + trimmed
	}
	return &Error{Status: status, Headline: HeadlineGeneric, Detail: detail}
}

// Local describes a failure that happened before any request reached the
// network, such as a record that cannot be encoded.
func Local(err error) *Error {
	return &Error{Status: 0, Headline: HeadlineRequestFailed, Detail: err.Error()}
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
