// Package errs defines the closed error taxonomy shared by every parser,
// generator and codec in lyricsforge.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is the closed taxonomy from the conversion engine's error design.
type Code int

const (
	// Xml is malformed XML at a level that prevents further structural
	// interpretation.
	Xml Code = iota
	// InvalidTime is a time literal that could not be parsed where a
	// valid timestamp was required.
	InvalidTime
	// InvalidLyricFormat is a structural violation of the declared
	// format.
	InvalidLyricFormat
	// JsonParse is bad JSON where JSON was required.
	JsonParse
	// Base64Decode is bad base64 in a codec-critical position.
	Base64Decode
	// FromUtf8 is a byte sequence that is not valid UTF-8 where text was
	// required.
	FromUtf8
	// ParseInt is bad integer encoding in a codec-critical position.
	ParseInt
	// Io is an I/O failure; only raised at external boundaries, never by
	// the pure core.
	Io
	// Decryption is a QRC codec decrypt failure.
	Decryption
	// Encryption is a QRC codec encrypt failure.
	Encryption
	// Internal is an invariant violation.
	Internal
)

func (c Code) String() string {
	switch c {
	case Xml:
		return "Xml"
	case InvalidTime:
		return "InvalidTime"
	case InvalidLyricFormat:
		return "InvalidLyricFormat"
	case JsonParse:
		return "JsonParse"
	case Base64Decode:
		return "Base64Decode"
	case FromUtf8:
		return "FromUtf8"
	case ParseInt:
		return "ParseInt"
	case Io:
		return "Io"
	case Decryption:
		return "Decryption"
	case Encryption:
		return "Encryption"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the taxonomy-tagged error type returned by the core. A wrapped
// cause carries a github.com/pkg/errors stack (see Wrap) and Unwrap
// exposes it to errors.Is/errors.As; Error() prints code, message and
// cause without the stack.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New creates a taxonomy error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a taxonomy error that wraps cause, always attaching a
// stack trace to it via github.com/pkg/errors.WithStack.
func Wrap(code Code, cause error, message string) *Error {
	if cause == nil {
		return New(code, message)
	}
	return &Error{Code: code, Message: message, cause: errors.WithStack(cause)}
}

// Is reports whether err is a *Error of the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
