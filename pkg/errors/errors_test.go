package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWithAsset(t *testing.T) {
	err := New(ErrCodeDuplicateRole, "two assets claim one slot").WithAsset(7, "director")

	expected := "DUPLICATE_ROLE: two assets claim one slot (key 7, director)"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
	if got := UserMessage(err); got != "two assets claim one slot (key 7, director)" {
		t.Errorf("UserMessage() = %v", got)
	}

	keyOnly := New(ErrCodeIncompletePair, "companion expected").WithAsset(3, "")
	if keyOnly.Error() != "INCOMPLETE_PAIR: companion expected (key 3)" {
		t.Errorf("Error() = %v", keyOnly.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeMissingAsset, cause, "open asset")

	if err.Code != ErrCodeMissingAsset {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMissingAsset)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeMalformedName,
			expected: false,
		},
		{
			name:     "wrapped error outer code",
			err:      Wrap(ErrCodeMissingAsset, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeMissingAsset,
			expected: true,
		},
		{
			name:     "wrapped error inner code",
			err:      Wrap(ErrCodeMissingAsset, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name: "joined errors second code",
			err: errors.Join(
				New(ErrCodeDuplicateRole, "dup"),
				New(ErrCodeOrphanCompanion, "orphan"),
			),
			code:     ErrCodeOrphanCompanion,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmtWrap(New(ErrCodeOrphanCompanion, "orphan")),
			code:     ErrCodeOrphanCompanion,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDoesNotMatchPopulatedTarget(t *testing.T) {
	a := New(ErrCodeDuplicateRole, "first")
	b := New(ErrCodeDuplicateRole, "second")
	if errors.Is(a, b) {
		t.Error("errors.Is should only treat bare code errors as sentinels")
	}
}

func TestAll(t *testing.T) {
	joined := errors.Join(
		New(ErrCodeDuplicateRole, "dup").WithAsset(7, "director"),
		fmtWrap(New(ErrCodeOrphanCompanion, "orphan").WithAsset(12, "companion")),
	)

	all := All(joined)
	if len(all) != 2 {
		t.Fatalf("All() returned %d errors, want 2", len(all))
	}
	if all[0].Key != 7 || all[1].Key != 12 {
		t.Errorf("keys = %d, %d, want 7, 12", all[0].Key, all[1].Key)
	}
	if All(nil) != nil {
		t.Error("All(nil) should be nil")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidManifest, "test"),
			expected: ErrCodeInvalidManifest,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "context: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func fmtWrap(err error) error { return wrapped{err} }
