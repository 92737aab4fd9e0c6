package game

import "fmt"

// Kind classifies an error so callers can decide how to react without
// matching on message text. Validation and rule violations are reported
// back to the player, conflicts are dropped silently, invariant failures
// abort the operation.
type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindRuleViolation
	KindNotFound
	KindConflict
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRuleViolation:
		return "rule_violation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is the domain error type shared by the engine, tables and the room.
// Code is a stable machine-readable identifier, Message is human-readable.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches against another *Error by kind, and by code when the target
// specifies one. This makes errors.Is usable with bare kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, code, msg string, args ...any) *Error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validationf reports malformed input: negative amounts, unknown actions,
// out-of-range configuration.
func Validationf(code, msg string, args ...any) *Error {
	return newError(KindValidation, code, msg, args...)
}

// RuleViolationf reports a well-formed request that the rules forbid right
// now, such as checking when facing a bet.
func RuleViolationf(code, msg string, args ...any) *Error {
	return newError(KindRuleViolation, code, msg, args...)
}

// NotFoundf reports a missing table, seat or player.
func NotFoundf(code, msg string, args ...any) *Error {
	return newError(KindNotFound, code, msg, args...)
}

// Conflictf reports a stale or duplicate request which callers discard
// without surfacing to the player.
func Conflictf(code, msg string, args ...any) *Error {
	return newError(KindConflict, code, msg, args...)
}

// Invariantf reports internal state corruption. The triggering operation
// must be aborted and the error logged loudly.
func Invariantf(code, msg string, args ...any) *Error {
	return newError(KindInvariant, code, msg, args...)
}

// Wrap attaches a cause to the error and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

func isKind(err error, k Kind) bool {
	for e := err; e != nil; {
		de, ok := e.(*Error)
		if ok {
			return de.Kind == k
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

func IsValidation(err error) bool    { return isKind(err, KindValidation) }
func IsRuleViolation(err error) bool { return isKind(err, KindRuleViolation) }
func IsNotFound(err error) bool      { return isKind(err, KindNotFound) }
func IsConflict(err error) bool      { return isKind(err, KindConflict) }
func IsInvariant(err error) bool     { return isKind(err, KindInvariant) }

// CodeOf returns the stable code of a domain error, or "" for foreign errors.
func CodeOf(err error) string {
	for e := err; e != nil; {
		de, ok := e.(*Error)
		if ok {
			return de.Code
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		e = u.Unwrap()
	}
	return ""
}
