package diary

import (
	"errors"
	"fmt"
)

// Kind classifies a failed entry operation.
type Kind string

// Kinds double as err_code values.
const (
	KindEmptyInput       Kind = "EMPTY_INPUT"
	KindBadFormat        Kind = "BAD_FORMAT"
	KindNotANumber       Kind = "NOT_A_NUMBER"
	KindOutOfRange       Kind = "OUT_OF_RANGE"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
)

// Error is returned by every entry operation. Code feeds err_code in handler summaries.
type Error struct {
	Kind Kind
	Err  error
}

var (
	ErrEmptyInput       = &Error{Kind: KindEmptyInput}
	ErrBadFormat        = &Error{Kind: KindBadFormat}
	ErrNotANumber       = &Error{Kind: KindNotANumber}
	ErrOutOfRange       = &Error{Kind: KindOutOfRange}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("diary: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("diary: %s", e.Kind)
}

func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any Error of the same kind, so errors.Is(err, ErrOutOfRange) ignores the cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func storeUnavailable(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf reports the kind of a diary error, or "" for anything else.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
