// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fineprofiling

import (
	"crypto/sha1" // #nosec G505
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ComputeVersion fingerprints the config content. The Version field itself is
// excluded so that identical settings always map to the same token. Records
// that have no JSON form (non-finite trace percentage) match ErrInvalidConfig.
func ComputeVersion(c Config) (string, error) {
	c.Version = ""
	buf, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	sum := sha1.Sum(buf) // #nosec G401
	return hex.EncodeToString(sum[:]), nil
}

// Stamp returns c with its version recomputed.
func Stamp(c Config) (Config, error) {
	v, err := ComputeVersion(c)
	if err != nil {
		return Config{}, err
	}
	c.Version = v
	return c, nil
}
