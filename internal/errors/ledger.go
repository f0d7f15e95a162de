package errors

import "fmt"

var (
	ErrValidation = &DomainError{
		Code:    CodeValidation,
		Message: "validation failed",
	}
	ErrInsufficientBalance = &DomainError{
		Code:    CodeInsufficientBalance,
		Message: "insufficient gym balance",
	}
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "not found",
	}
	ErrAlreadyResolved = &DomainError{
		Code:    CodeAlreadyResolved,
		Message: "already processed",
	}
	ErrLedgerWriteFailed = &DomainError{
		Code:    CodeLedgerWriteFailed,
		Message: "ledger write failed",
	}
)

func Validation(field, message string) *DomainError {
	return &DomainError{Code: CodeValidation, Field: field, Message: message}
}

func NotFound(resource string, id any) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %v not found", resource, id)}
}

func InsufficientBalance(available, requested fmt.Stringer) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("insufficient gym balance: available %s, requested %s", available, requested),
	}
}

func AlreadyResolved(resource string, id any, status string) *DomainError {
	return &DomainError{
		Code:    CodeAlreadyResolved,
		Message: fmt.Sprintf("%s %v already processed (status %s)", resource, id, status),
	}
}

// LedgerWriteFailed wraps a datastore failure. Nothing of the failed
// operation has been applied when this is returned.
func LedgerWriteFailed(op string, err error) *DomainError {
	return &DomainError{Code: CodeLedgerWriteFailed, Message: op + " failed", Err: err}
}
