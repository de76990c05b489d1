package database

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/couchman/internal/domain"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"users", false},
		{"a", false},
		{"logs/2024_01", false},
		{"a$b(c)+d-e", false},
		{"", true},
		{"Users", true},
		{"1users", true},
		{"_users", true},
		{"us ers", true},
		{strings.Repeat("a", MaxNameLength), false},
		{strings.Repeat("a", MaxNameLength+1), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.name)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
