package errors

import stderrors "errors"

// CodeOf returns the domain code carried by err, or "" for foreign errors.
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsDomain reports whether err carries a domain code.
func IsDomain(err error) bool {
	return CodeOf(err) != ""
}

// IsRetryable reports whether the operation may succeed if repeated
// unchanged. Only datastore failures qualify.
func IsRetryable(err error) bool {
	return CodeOf(err) == CodeLedgerWriteFailed
}

// IsClientError reports whether err was caused by the caller's input or by
// the current ledger state rather than by infrastructure.
func IsClientError(err error) bool {
	switch CodeOf(err) {
	case CodeValidation, CodeInsufficientBalance, CodeNotFound, CodeAlreadyResolved:
		return true
	}
	return false
}
