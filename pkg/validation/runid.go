// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks identifiers that reach storage keys, URLs and
// log records.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidRunID is wrapped by every ValidateRunID failure.
var ErrInvalidRunID = errors.New("invalid run id")

// MaxRunIDLength bounds run IDs; a UUID is 36 characters.
const MaxRunIDLength = 64

// runIDPattern allows letters, digits, dots, underscores and hyphens, and
// must start with a letter or digit.
var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]*$`)

// ValidateRunID checks a caller supplied run ID.
//
// Example:
//
//	if err := validation.ValidateRunID(id); err != nil {
//	    return Record{}, err
//	}
//	// Safe to use as a journal key suffix
func ValidateRunID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidRunID)
	case len(id) > MaxRunIDLength:
		return fmt.Errorf("%w: %d characters (max %d)", ErrInvalidRunID, len(id), MaxRunIDLength)
	case !runIDPattern.MatchString(id):
		return fmt.Errorf("%w: %q (letters, digits, '.', '_' and '-' only)", ErrInvalidRunID, id)
	}
	return nil
}

// ValidateRunIDs validates several IDs and reports every invalid one.
func ValidateRunIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if ValidateRunID(id) != nil {
			invalid = append(invalid, fmt.Sprintf("%q", id))
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRunID, strings.Join(invalid, ", "))
	}
	return nil
}
