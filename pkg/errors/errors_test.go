package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrNotFound, true},
		{"wrapped once", fmt.Errorf("get player: %w", ErrNotFound), true},
		{"wrapped twice", fmt.Errorf("engine: %w", fmt.Errorf("store: %w", ErrNotFound)), true},
		{"different error", ErrDuplicateIdentifier, false},
		{"nil error", nil, false},
		{"unrelated error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDuplicateIdentifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrDuplicateIdentifier, true},
		{"wrapped", fmt.Errorf("add identifier sleeper:4046: %w", ErrDuplicateIdentifier), true},
		{"different error", ErrNotFound, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateIdentifier(tt.err); got != tt.want {
				t.Errorf("IsDuplicateIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsStoreUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrStoreUnavailable, true},
		{"wrapped", fmt.Errorf("resolve: %w", ErrStoreUnavailable), true},
		{"different error", ErrValidation, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStoreUnavailable(tt.err); got != tt.want {
				t.Errorf("IsStoreUnavailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	wrapped := fmt.Errorf("empty external id: %w", ErrValidation)
	if !IsValidation(wrapped) {
		t.Errorf("IsValidation() = false for wrapped ErrValidation")
	}
	if IsValidation(ErrNotFound) {
		t.Errorf("IsValidation() = true for ErrNotFound")
	}
}

func TestIsAlreadyExists(t *testing.T) {
	wrapped := fmt.Errorf("alias: %w", ErrAlreadyExists)
	if !IsAlreadyExists(wrapped) {
		t.Errorf("IsAlreadyExists() = false for wrapped ErrAlreadyExists")
	}
	if IsAlreadyExists(nil) {
		t.Errorf("IsAlreadyExists() = true for nil")
	}
}
