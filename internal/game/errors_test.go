package game

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  *Error
		want func(error) bool
	}{
		{Validationf("bad_amount", "x"), IsValidation},
		{RuleViolationf("out_of_turn", "x"), IsRuleViolation},
		{NotFoundf("unknown_table", "x"), IsNotFound},
		{Conflictf("stale_turn", "x"), IsConflict},
		{Invariantf("chip_conservation", "x"), IsInvariant},
	}
	checks := []func(error) bool{IsValidation, IsRuleViolation, IsNotFound, IsConflict, IsInvariant}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if !tt.want(tt.err) {
				t.Errorf("%v did not match its own kind", tt.err)
			}
			matched := 0
			for _, check := range checks {
				if check(tt.err) {
					matched++
				}
			}
			if matched != 1 {
				t.Errorf("%v matched %d kinds, want exactly 1", tt.err, matched)
			}
		})
	}
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	inner := RuleViolationf("below_min_raise", "raise to 15 below minimum 20")
	wrapped := fmt.Errorf("applying action: %w", inner)

	if !IsRuleViolation(wrapped) {
		t.Error("rule violation lost through fmt.Errorf wrapping")
	}
	if CodeOf(wrapped) != "below_min_raise" {
		t.Errorf("CodeOf = %q, want below_min_raise", CodeOf(wrapped))
	}
}

func TestErrorIsMatching(t *testing.T) {
	err := Conflictf("stale_turn", "turn token expired")

	if !errors.Is(err, &Error{Kind: KindConflict}) {
		t.Error("kind-only sentinel should match")
	}
	if !errors.Is(err, &Error{Kind: KindConflict, Code: "stale_turn"}) {
		t.Error("kind+code sentinel should match")
	}
	if errors.Is(err, &Error{Kind: KindConflict, Code: "other"}) {
		t.Error("different code should not match")
	}
	if errors.Is(err, &Error{Kind: KindValidation}) {
		t.Error("different kind should not match")
	}
}

func TestErrorCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Invariantf("snapshot_write", "saving table").Wrap(cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if got := err.Error(); got != "snapshot_write: saving table: disk full" {
		t.Errorf("Error() = %q", got)
	}
}
