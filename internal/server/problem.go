// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/informant/internal/log"
)

// Problem types.
const (
	ProblemInvalidConfig   = "config/invalid"
	ProblemInvalidRequest  = "request/invalid"
	ProblemVersionConflict = "config/version_conflict"
	ProblemStoreFailure    = "store/failure"
	ProblemRateLimited     = "request/rate_limited"
)

// writeProblem writes an RFC 7807 problem details response.
//
//   - type: machine identifier (e.g. "config/invalid").
//   - title: short human label; clients show it as the error headline.
//   - code: stable short code (e.g. "INVALID_CONFIG").
//   - detail: explanation of this occurrence.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":     problemType,
		"title":    title,
		"status":   status,
		"code":     code,
		"instance": r.URL.EscapedPath(),
	}
	if reqID != "" {
		res["requestId"] = reqID
	}
	if detail != "" {
		res["detail"] = detail
	}
	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", "requestId":
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}
