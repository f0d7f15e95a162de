// Package errors defines the domain error taxonomy shared by the ledger,
// the withdrawal workflow and the report aggregator. Every error returned by
// a service is either one of these codes or wraps one of them, so callers
// branch with errors.Is against the sentinels below.
package errors

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyResolved     = "ALREADY_RESOLVED"
	CodeLedgerWriteFailed   = "LEDGER_WRITE_FAILED"
)

// DomainError is a coded error. Two DomainErrors match under errors.Is when
// their codes are equal, so detailed instances still match the sentinels.
type DomainError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *DomainError) Unwrap() error { return e.Err }

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
