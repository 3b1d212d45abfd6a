// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fineprofiling

import (
	"errors"
	"fmt"

	"github.com/ManuGH/informant/internal/validate"
)

// ErrInvalidConfig classifies validation failures.
var ErrInvalidConfig = errors.New("invalid fine profiling config")

// Validate checks value ranges. Version is not inspected. The returned error
// matches ErrInvalidConfig and unwraps to validate.ValidationError.
func Validate(c Config) error {
	v := validate.New()
	v.FloatRange("tracePercentage", c.TracePercentage, 0, 100)
	v.Positive("intervalMillis", c.IntervalMillis)
	v.Positive("totalSeconds", c.TotalSeconds)
	v.AtLeast("storeThresholdMillis", c.StoreThresholdMillis, NoOverride)
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
