package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	UnknownCode  Code = "unknown"
	NotFoundCode Code = "not_found"
	BadInputCode Code = "bad_input"

	// ConfigurationCode marks a deployment or schema mismatch, such as a searched
	// column without a declared type. It aborts the whole operation.
	ConfigurationCode Code = "configuration"

	// StructuralCode marks a search term whose shape is wrong (arity, range prefixes).
	StructuralCode Code = "structural"

	// CoercionCode marks a search value that does not fit the column type.
	CoercionCode Code = "coercion"
)

type FieldErrorsMetadata map[string][]string

type Fault struct {
	code     Code
	message  string
	metadata any
	original error
}

func New(code Code, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() Code {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

func (f Fault) Error() string {
	if f.original != nil {
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}

func (f Fault) Unwrap() error {
	return f.original
}

// Is reports whether err is, or wraps, a fault with the given code.
func Is(err error, code Code) bool {
	var f Fault
	if errors.As(err, &f) {
		return f.code == code
	}
	return false
}
