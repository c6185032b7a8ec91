// Package dqlgen translates parsed SQL statements into DQL text plus a
// named-argument map, and vets the constructs the target store cannot
// accept. The translator is pure and stateless: the same input always
// produces the same output or the same error.
package dqlgen

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes translation failures.
type ErrorCode string

const (
	// ErrCodeUnsupported indicates a statement type or clause that is
	// permanently outside the accepted fragment. Retrying never helps.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_OPERATION"

	// ErrCodeMalformed indicates a statement that matched a supported
	// kind's leading keywords but failed structural parsing.
	ErrCodeMalformed ErrorCode = "MALFORMED_STATEMENT"

	// ErrCodeArityMismatch indicates the placeholder count does not match
	// the supplied parameter count. Defensive: the producing query
	// builder guarantees correspondence, but a mismatch must fail loudly
	// rather than silently misalign arguments.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"
)

// TranslateError is a structured translation failure.
//
// Code distinguishes permanently-unsupported constructs from malformed
// input so callers can branch without string matching. Construct names
// the offending construct for unsupported operations; Hint carries a
// suggested workaround where one exists.
type TranslateError struct {
	Code      ErrorCode
	Message   string
	Construct string
	Hint      string
}

// Error implements the error interface.
func (e *TranslateError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupported reports whether err is a permanently-unsupported
// operation error. Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var te *TranslateError
	return errors.As(err, &te) && te.Code == ErrCodeUnsupported
}

// IsMalformed reports whether err is a malformed-statement error.
func IsMalformed(err error) bool {
	var te *TranslateError
	return errors.As(err, &te) && te.Code == ErrCodeMalformed
}

// IsArityMismatch reports whether err is a placeholder/parameter count
// mismatch.
func IsArityMismatch(err error) bool {
	var te *TranslateError
	return errors.As(err, &te) && te.Code == ErrCodeArityMismatch
}

// newUnsupportedOperation builds the error for statement kinds the
// classifier rejects outright (CREATE TABLE, TRUNCATE, ...).
func newUnsupportedOperation(keyword string) *TranslateError {
	return &TranslateError{
		Code:      ErrCodeUnsupported,
		Message:   "Unsupported SQL operation: " + keyword,
		Construct: keyword,
	}
}

// newUnsupportedConstruct builds the error for clauses inside otherwise
// supported statements (JOIN, UNION, subquery, index variants).
func newUnsupportedConstruct(construct, hint string) *TranslateError {
	return &TranslateError{
		Code:      ErrCodeUnsupported,
		Message:   "Unsupported SQL construct: " + construct,
		Construct: construct,
		Hint:      hint,
	}
}

func newMalformed(message string) *TranslateError {
	return &TranslateError{Code: ErrCodeMalformed, Message: message}
}

func newArityMismatch(placeholders, params int) *TranslateError {
	return &TranslateError{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("statement has %d placeholders but %d parameters were supplied", placeholders, params),
	}
}
