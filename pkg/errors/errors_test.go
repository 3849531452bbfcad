// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package errors

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"source read", NewSourceReadError("a.csv", fs.ErrNotExist), ErrSourceRead},
		{"schema", NewSchemaError("a.csv", "id"), ErrSchema},
		{"empty list", &EmptySourceListError{}, ErrEmptySourceList},
		{"validation", NewValidationError("policy", "unknown"), ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("merging: %w", tt.err)
			assert.True(t, Is(wrapped, tt.target))
			if tt.target != ErrSchema {
				assert.False(t, Is(wrapped, ErrSchema))
			}
		})
	}
}

func TestSourceReadErrorUnwraps(t *testing.T) {
	err := NewSourceReadError("data/raw/a.csv", fs.ErrNotExist)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "data/raw/a.csv")
}

func TestSchemaErrorMessage(t *testing.T) {
	err := NewSchemaError("assays.csv", "id")
	assert.Equal(t, `source assays.csv: duplicate column "id" in header`, err.Error())

	var se *SchemaError
	assert.True(t, As(fmt.Errorf("wrap: %w", err), &se))
	assert.Equal(t, "id", se.Column)
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "validation failed for policy: unknown", NewValidationError("policy", "unknown").Error())
	assert.Equal(t, "validation failed: bad", NewValidationError("", "bad").Error())
}
