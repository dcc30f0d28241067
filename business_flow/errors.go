// Package businessflow contains the core business logic and use cases of the POS tracker
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Request validation errors
	ErrValidation         = errors.New("validation failed")
	ErrInvalidDateFormat  = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrDateRangeRequired  = errors.New("start_date and end_date are required")
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
	ErrMissingColumn      = errors.New("required column is missing")
	ErrInvalidTimestamp   = errors.New("invalid LastSeen timestamp")
	ErrInvalidNumber      = errors.New("invalid numeric value")

	// Client-related errors
	ErrClientNotFound        = errors.New("client not found")
	ErrClientAlreadyExists   = errors.New("client with this terminal ID already exists")
	ErrClientHasTransactions = errors.New("client still has transactions")
	ErrGroupNotFound         = errors.New("group not found")
	ErrNoClients             = errors.New("no clients found")

	// Transaction and report errors
	ErrTransactionsNotFound = errors.New("no matching transactions found")
	ErrNoData               = errors.New("no data found for the given date range")
)

// BusinessError represents a business logic error with a stable code
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// ErrorCode returns the code of the outermost BusinessError in err's chain
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidDateFormat(err error) bool {
	return errors.Is(err, ErrInvalidDateFormat)
}

func IsDateRangeRequired(err error) bool {
	return errors.Is(err, ErrDateRangeRequired)
}

func IsInvalidSpreadsheet(err error) bool {
	return errors.Is(err, ErrInvalidSpreadsheet)
}

func IsMissingColumn(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

func IsInvalidTimestamp(err error) bool {
	return errors.Is(err, ErrInvalidTimestamp)
}

func IsInvalidNumber(err error) bool {
	return errors.Is(err, ErrInvalidNumber)
}

func IsClientNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

func IsClientAlreadyExists(err error) bool {
	return errors.Is(err, ErrClientAlreadyExists)
}

func IsClientHasTransactions(err error) bool {
	return errors.Is(err, ErrClientHasTransactions)
}

func IsGroupNotFound(err error) bool {
	return errors.Is(err, ErrGroupNotFound)
}

func IsNoClients(err error) bool {
	return errors.Is(err, ErrNoClients)
}

func IsTransactionsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionsNotFound)
}

func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsBadRequest reports whether err was caused by malformed input
func IsBadRequest(err error) bool {
	return IsValidation(err) || IsInvalidDateFormat(err) || IsDateRangeRequired(err) ||
		IsInvalidSpreadsheet(err) || IsMissingColumn(err) || IsInvalidTimestamp(err) || IsInvalidNumber(err)
}

// IsNotFound reports whether err means the requested rows do not exist
func IsNotFound(err error) bool {
	return IsClientNotFound(err) || IsGroupNotFound(err) || IsNoClients(err) ||
		IsTransactionsNotFound(err) || IsNoData(err)
}

// IsConflict reports whether err is a uniqueness or reference conflict
func IsConflict(err error) bool {
	return IsClientAlreadyExists(err) || IsClientHasTransactions(err)
}
