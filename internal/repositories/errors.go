package repositories

import (
	"errors"

	apperrors "gymledger/internal/errors"
)

// ToDomainError maps repository failures onto the domain taxonomy. Errors
// that already carry a domain code pass through unchanged; anything not
// recognised is a datastore failure.
func ToDomainError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsDomain(err) {
		return err
	}
	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrEntryNotFound),
		errors.Is(err, ErrWithdrawalNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrMembershipNotFound):
		return &apperrors.DomainError{Code: apperrors.CodeNotFound, Message: err.Error()}
	case errors.Is(err, ErrInsufficientFunds):
		return &apperrors.DomainError{Code: apperrors.CodeInsufficientBalance, Message: err.Error()}
	case errors.Is(err, ErrStatusConflict), errors.Is(err, ErrDuplicateReversal):
		return &apperrors.DomainError{Code: apperrors.CodeAlreadyResolved, Message: err.Error()}
	case errors.Is(err, ErrDuplicateAccount):
		return &apperrors.DomainError{Code: apperrors.CodeValidation, Field: "gym_id", Message: err.Error()}
	}
	return apperrors.LedgerWriteFailed(op, err)
}
