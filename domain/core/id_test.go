package core

import (
	"errors"
	"testing"
	"time"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseSessionID tests session ID parsing
func TestParseSessionID(t *testing.T) {
	valid := NewSessionID()

	tests := []struct {
		input    string
		hasError bool
	}{
		{valid.String(), false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, test := range tests {
		result, err := ParseSessionID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError {
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", test.input, err)
			}
			if result != valid {
				t.Errorf("Expected %s, got %s", valid, result)
			}
		}
	}
}

// TestErrorClassification tests the sentinel helpers
func TestErrorClassification(t *testing.T) {
	if !IsNotFoundError(ErrStageNotFound) {
		t.Error("Expected stage not found to classify as not found")
	}
	if !IsValidationError(NewValidationError("stages[0].id", "must be positive")) {
		t.Error("Expected validation error to classify as validation")
	}
	if !IsValidationError(NewUnknownAspectError("stage 1", "moral")) {
		t.Error("Expected unknown aspect to classify as validation")
	}
	err := NewInvalidAnswerError(3, "unknown option")
	if !errors.Is(err, ErrInvalidAnswer) || !IsTransitionError(err) {
		t.Error("Expected invalid answer to classify as transition error")
	}
}

// TestFixedClock tests the deterministic clock
func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := FixedClock(at)
	if !clock().Time().Equal(at) {
		t.Errorf("Expected %v, got %v", at, clock().Time())
	}
	if NewSetFingerprint([]byte("a")) == NewSetFingerprint([]byte("b")) {
		t.Error("Expected different fingerprints for different input")
	}
}
