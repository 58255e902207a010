package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of a signing operation.
//
// A Kind is itself an error, so that errors.Is(err, protocol.ErrVerification) reports
// whether err is an *Error of that kind.
type Kind int

const (
	// KindValidation is malformed caller input. Never retried.
	KindValidation Kind = iota + 1
	// KindConnectivity means the co-signers could not be reached. The caller may retry
	// with a new session.
	KindConnectivity
	// KindProtocol is a failure reported by the remote protocol engine during
	// precompute, readiness or sign.
	KindProtocol
	// KindVerification means the produced signature does not verify under the
	// account's public key. It must never be suppressed.
	KindVerification
	// KindEncoding is a failure of a transaction or typed data codec.
	KindEncoding
)

var (
	ErrValidation   error = KindValidation
	ErrConnectivity error = KindConnectivity
	ErrProtocol     error = KindProtocol
	ErrVerification error = KindVerification
	ErrEncoding     error = KindEncoding
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConnectivity:
		return "connectivity"
	case KindProtocol:
		return "protocol"
	case KindVerification:
		return "verification"
	case KindEncoding:
		return "encoding"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) Error() string {
	return k.String() + " error"
}

// Error is returned by every failing signing operation. It carries the kind of failure
// and the operation in which it occurred.
type Error struct {
	// Kind of the failure
	Kind Kind
	// Op is the operation or phase which failed, e.g. "precompute"
	Op string
	// Err is the underlying error
	Err error
}

// NewError wraps err. If err already is an *Error, it is returned unchanged so that
// the innermost kind wins.
func NewError(kind Kind, op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is NewError with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...interface{}) error {
	return NewError(kind, op, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("tss: %s: %s", e.Kind.String(), e.Err)
	}
	return fmt.Sprintf("tss: %s: %s: %s", e.Kind.String(), e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
