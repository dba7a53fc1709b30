package resolve

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{
			&Error{Op: "get package", Source: "local", ID: "org/foo@1.0", Err: ErrNotFound},
			"resolve: local: get package org/foo@1.0: not found",
		},
		{
			&Error{Op: "list groups", Err: errors.New("boom")},
			"resolve: list groups: boom",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestConflictErrorWrapping(t *testing.T) {
	id := NewGroupID("org").Package("foo").At("1.0")
	err := error(&Error{
		Op:     "get package",
		Source: "chain",
		ID:     id.String(),
		Err:    &ConflictError{ID: id, Count: 2, Sources: []string{"a", "b"}},
	})

	if !errors.Is(err, ErrConflict) {
		t.Error("errors.Is(err, ErrConflict) = false")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = true")
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatal("errors.As(err, *ConflictError) = false")
	}
	if conflict.Count != 2 {
		t.Errorf("Count = %d, want 2", conflict.Count)
	}

	want := "resolve: chain: get package org/foo@1.0: found 2 sources of package org/foo@1.0 (a, b)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewError(t *testing.T) {
	if NewError("op", "src", "id", nil) != nil {
		t.Error("NewError(nil) should be nil")
	}

	base := NewError("get package", "a", "org/foo@1.0", ErrNotFound)
	wrapped := fmt.Errorf("context: %w", base)
	if got := NewError("get package", "b", "org/foo@1.0", wrapped); got != wrapped {
		t.Errorf("NewError re-wrapped an existing resolver error: %v", got)
	}

	var rerr *Error
	if !errors.As(base, &rerr) || rerr.Source != "a" {
		t.Errorf("NewError() = %#v", base)
	}
}
