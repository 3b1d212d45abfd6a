// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package backend is the HTTP client for the fine-profiling config endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ManuGH/informant/internal/fineprofiling"
	xglog "github.com/ManuGH/informant/internal/log"
	"github.com/ManuGH/informant/internal/metrics"
)

const (
	SectionPath = "/backend/config/fine-profiling-section"
	WritePath   = "/backend/config/fine-profiling"

	HeaderRequestID = "X-Request-ID"

	OpRead  = "read"
	OpWrite = "write"

	maxBodyBytes = 1 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is the sustained request rate per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
	UserAgent string
	// HTTPClient overrides the instrumented default (tests).
	HTTPClient *http.Client
}

// Client talks to the config backend. It never retries.
type Client struct {
	base      string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    zerolog.Logger
}

// New creates a client for the backend rooted at opts.BaseURL.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		base:      base,
		http:      hc,
		limiter:   limiter,
		userAgent: opts.UserAgent,
		logger:    xglog.WithComponent("backend").With().Str(xglog.FieldBaseURL, base).Logger(),
	}
}

// ReadSection fetches the config together with the general store threshold.
func (c *Client) ReadSection(ctx context.Context) (fineprofiling.Section, error) {
	var out fineprofiling.Section
	body, err := c.do(ctx, OpRead, http.MethodGet, SectionPath, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &HTTPError{Sentinel: ErrBadResponse, Operation: OpRead, Status: http.StatusOK, Body: body, Err: err}
	}
	return out, nil
}

// WriteConfig submits cfg and returns the version token the server assigned.
// A stale cfg.Version yields an error matching ErrConflict.
func (c *Client) WriteConfig(ctx context.Context, cfg fineprofiling.Config) (string, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	body, err := c.do(ctx, OpWrite, http.MethodPost, WritePath, payload)
	if err != nil {
		return "", err
	}
	version, err := decodeVersion(body)
	if err != nil {
		return "", &HTTPError{Sentinel: ErrBadResponse, Operation: OpWrite, Status: http.StatusOK, Body: body, Err: err}
	}
	return version, nil
}

// decodeVersion accepts a JSON string or a bare token.
func decodeVersion(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", errors.New("empty version")
	}
	if trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return "", err
		}
		if v == "" {
			return "", errors.New("empty version")
		}
		return v, nil
	}
	return string(trimmed), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	start := time.Now()
	status := 0
	defer func() { metrics.ObserveBackendRequest(op, status, time.Since(start)) }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: wait for rate limiter: %w", op, err)
		}
	}

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	reqID := xglog.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, reqID)

	logger := c.logger.With().Str(xglog.FieldOperation, op).Str(xglog.FieldRequestID, reqID).Logger()

	res, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "backend.transport_error").Msg("backend request failed")
		return nil, &HTTPError{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	defer func() { _ = res.Body.Close() }()
	status = res.StatusCode

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &HTTPError{Sentinel: ErrUnavailable, Operation: op, Status: status, Err: err}
	}

	switch {
	case status >= 200 && status < 300:
		logger.Debug().Int(xglog.FieldStatus, status).Msg("backend request ok")
		return body, nil
	case status == http.StatusPreconditionFailed:
		logger.Info().Int(xglog.FieldStatus, status).Str(xglog.FieldEvent, "backend.conflict").Msg("backend rejected stale version")
		return nil, &HTTPError{Sentinel: ErrConflict, Operation: op, Status: status, Body: body}
	default:
		logger.Warn().Int(xglog.FieldStatus, status).Str(xglog.FieldEvent, "backend.error_status").Msg("backend returned error status")
		return nil, &HTTPError{Sentinel: ErrUpstream, Operation: op, Status: status, Body: body}
	}
}
