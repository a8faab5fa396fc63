// Package errs defines the error taxonomy shared by the curve engine, the
// reference program and the client adapter. Every failure surfaced to a caller
// carries exactly one Kind so a UI can explain why a trade was rejected.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidAmount
	KindInvalidFeeRate
	KindAlreadyExists
	KindLaunchGraduated
	KindSlippageExceeded
	KindArithmeticOverflow
	KindNotFound
	KindMalformedEvent
	KindInsufficientOutput
	KindInsufficientBalance
	// KindInvalidInstruction is a request that is not a well-formed protocol
	// instruction: foreign program, unknown discriminator, short data or
	// missing accounts.
	KindInvalidInstruction
	// KindInvalidAccount is an account that does not match the address the
	// launch expects.
	KindInvalidAccount
)

// Sentinels, one per kind. Use errors.Is(err, errs.ErrSlippageExceeded).
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidFeeRate      = errors.New("invalid fee rate")
	ErrAlreadyExists       = errors.New("launch already exists")
	ErrLaunchGraduated     = errors.New("launch graduated")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrNotFound            = errors.New("not found")
	ErrMalformedEvent      = errors.New("malformed event")
	ErrInsufficientOutput  = errors.New("insufficient output")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidInstruction  = errors.New("invalid instruction")
	ErrInvalidAccount      = errors.New("invalid account")
)

var sentinels = map[Kind]error{
	KindInvalidAmount:       ErrInvalidAmount,
	KindInvalidFeeRate:      ErrInvalidFeeRate,
	KindAlreadyExists:       ErrAlreadyExists,
	KindLaunchGraduated:     ErrLaunchGraduated,
	KindSlippageExceeded:    ErrSlippageExceeded,
	KindArithmeticOverflow:  ErrArithmeticOverflow,
	KindNotFound:            ErrNotFound,
	KindMalformedEvent:      ErrMalformedEvent,
	KindInsufficientOutput:  ErrInsufficientOutput,
	KindInsufficientBalance: ErrInsufficientBalance,
	KindInvalidInstruction:  ErrInvalidInstruction,
	KindInvalidAccount:      ErrInvalidAccount,
}

func (k Kind) String() string {
	switch k {
	case KindInvalidAmount:
		return "InvalidAmount"
	case KindInvalidFeeRate:
		return "InvalidFeeRate"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindLaunchGraduated:
		return "LaunchGraduated"
	case KindSlippageExceeded:
		return "SlippageExceeded"
	case KindArithmeticOverflow:
		return "ArithmeticOverflow"
	case KindNotFound:
		return "NotFound"
	case KindMalformedEvent:
		return "MalformedEvent"
	case KindInsufficientOutput:
		return "InsufficientOutput"
	case KindInsufficientBalance:
		return "InsufficientBalance"
	case KindInvalidInstruction:
		return "InvalidInstruction"
	case KindInvalidAccount:
		return "InvalidAccount"
	default:
		return "Unknown"
	}
}

// Sentinel returns the package-level sentinel for k, or nil for KindUnknown.
func (k Kind) Sentinel() error {
	return sentinels[k]
}

// Error is a classified failure raised by operation Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// E builds a classified error. A nil err is replaced by the kind's sentinel.
func E(op string, kind Kind, err error) error {
	if err == nil {
		err = kind.Sentinel()
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error whose message wraps the kind's sentinel.
func Errorf(op string, kind Kind, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	s := kind.Sentinel()
	if s == nil {
		return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
	}
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%w: %s", s, msg)}
}

// KindOf reports the kind carried by err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
