// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"math"
	"testing"
)

func TestValidator_AccumulatesErrors(t *testing.T) {
	v := New()
	v.URL("BaseURL", "ftp://host", []string{"http", "https"})
	v.Range("Burst", 0, 1, 10)
	v.FloatRange("TracePercentage", 150, 0, 100)
	v.NotEmpty("Key", "  ")
	v.OneOf("Backend", "mongo", []string{"memory", "file"})
	v.Positive("Interval", 0)
	v.AtLeast("Threshold", -2, -1)
	v.ListenAddr("Listen", "8080")

	if v.IsValid() {
		t.Fatal("expected invalid")
	}
	err := v.Err()
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := []string{"BaseURL", "Burst", "TracePercentage", "Key", "Backend", "Interval", "Threshold", "Listen"}
	got := ve.Fields()
	if len(got) != len(want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidator_Valid(t *testing.T) {
	v := New()
	v.URL("BaseURL", "http://localhost:4000", []string{"http", "https"})
	v.Range("Burst", 5, 1, 10)
	v.FloatRange("TracePercentage", 100, 0, 100)
	v.OneOf("Backend", "file", []string{"memory", "file"})
	v.AtLeast("Threshold", -1, -1)
	v.ListenAddr("Listen", ":4000")
	if err := v.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidator_FloatRangeRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		v := New()
		v.FloatRange("TracePercentage", f, 0, 100)
		if v.IsValid() {
			t.Errorf("FloatRange accepted %v", f)
		}
	}
}

func TestValidationError_SingleMessage(t *testing.T) {
	v := New()
	v.Positive("intervalMillis", 0)
	if got := v.Err().Error(); got != "intervalMillis: value must be positive, got 0" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	if _, err := ParseLogLevel("debug"); err != nil {
		t.Errorf("debug: %v", err)
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
