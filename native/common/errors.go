package common

import "errors"

// Error classes shared by every native module. Module errors unwrap to exactly
// one class so callers can decide whether a retry is meaningful.
var (
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrInsufficientValue     = errors.New("insufficient value")
	ErrArithmeticViolation   = errors.New("arithmetic invariant violation")
	ErrTransferFailure       = errors.New("transfer failure")
)

type classifiedError struct {
	msg   string
	class error
}

func (e *classifiedError) Error() string { return e.msg }

func (e *classifiedError) Unwrap() error { return e.class }

// Precondition returns a new error classified as a precondition violation.
func Precondition(msg string) error {
	return &classifiedError{msg: msg, class: ErrPreconditionViolation}
}

// Insufficient returns a new error classified as insufficient value.
func Insufficient(msg string) error {
	return &classifiedError{msg: msg, class: ErrInsufficientValue}
}

// Arithmetic returns a new error classified as an arithmetic invariant
// violation.
func Arithmetic(msg string) error {
	return &classifiedError{msg: msg, class: ErrArithmeticViolation}
}

// TransferFailed returns a new error classified as a transfer failure.
func TransferFailed(msg string) error {
	return &classifiedError{msg: msg, class: ErrTransferFailure}
}

// Class reports the error class err belongs to, or nil when err is not
// classified.
func Class(err error) error {
	for _, class := range []error{
		ErrPreconditionViolation,
		ErrInsufficientValue,
		ErrArithmeticViolation,
		ErrTransferFailure,
	} {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}

// Recoverable reports whether the caller may retry err with different timing
// or amounts.
func Recoverable(err error) bool {
	switch Class(err) {
	case ErrPreconditionViolation, ErrInsufficientValue:
		return true
	default:
		return false
	}
}
