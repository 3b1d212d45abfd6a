// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var openapiSpec []byte

// OpenAPISpec returns the embedded API description.
func OpenAPISpec() []byte {
	return append([]byte(nil), openapiSpec...)
}

func loadOpenAPI() (*openapi3.T, routers.Router, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, nil, fmt.Errorf("load openapi: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("validate openapi: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("openapi router: %w", err)
	}
	return doc, router, nil
}

// validateRequests rejects requests whose parameters or body do not match the
// API description. Routes the description does not know pass through.
func validateRequests(router routers.Router) func(http.Handler) http.Handler {
	opts := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         false,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				writeProblem(w, r, http.StatusBadRequest, ProblemInvalidRequest, "Invalid request", "INVALID_REQUEST", requestErrorDetail(err), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestErrorDetail(err error) string {
	var re *openapi3filter.RequestError
	if errors.As(err, &re) {
		if re.Reason != "" {
			return re.Reason
		}
		if re.Err != nil {
			return re.Err.Error()
		}
	}
	return err.Error()
}
