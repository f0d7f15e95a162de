package handlers

import (
	"errors"

	apperrors "gymledger/internal/errors"
	"gymledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var statusByCode = map[string]int{
	apperrors.CodeValidation:          fiber.StatusBadRequest,
	apperrors.CodeInsufficientBalance: fiber.StatusUnprocessableEntity,
	apperrors.CodeNotFound:            fiber.StatusNotFound,
	apperrors.CodeAlreadyResolved:     fiber.StatusConflict,
	apperrors.CodeLedgerWriteFailed:   fiber.StatusServiceUnavailable,
}

// handleServiceError renders a service error. Domain errors map to their
// HTTP status; anything else is logged and reported as a 500.
func handleServiceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		log.Error("unhandled service error", zap.String("path", c.Path()), zap.Error(err))
		return utils.InternalError(c, "internal server error")
	}

	status, ok := statusByCode[de.Code]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	message := de.Message
	switch de.Code {
	case apperrors.CodeAlreadyResolved:
		message = "already processed"
	case apperrors.CodeLedgerWriteFailed:
		log.Error("ledger unavailable", zap.String("path", c.Path()), zap.Error(err))
		message = "ledger temporarily unavailable"
	}
	return utils.Error(c, status, de.Code, de.Field, message)
}
