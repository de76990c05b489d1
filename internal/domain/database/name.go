// Package database holds database-level value objects.
package database

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/couchman/internal/domain"
)

// MaxNameLength is the longest database name CouchDB accepts.
const MaxNameLength = 238

var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_$()+/-]*$`)

// ValidateName checks a database name against CouchDB naming rules.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("database name is required: %w", domain.ErrValidation)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("database name too long (max %d): %w", MaxNameLength, domain.ErrValidation)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf(
			"database name %q must start with a lowercase letter and contain only a-z, 0-9, _$()+-/: %w",
			name, domain.ErrValidation,
		)
	}
	return nil
}
