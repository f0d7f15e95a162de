package handlers

import (
	"time"

	"gymledger/internal/money"
	"gymledger/internal/services/ledger"
	"gymledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LedgerHandler struct {
	ledger ledger.Service
	log    *zap.Logger
}

func NewLedgerHandler(ledgerService ledger.Service, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledgerService,
		log:    log.Named("handlers.ledger"),
	}
}

func (h *LedgerHandler) OpenAccount(c *fiber.Ctx) error {
	var input struct {
		GymID   uint   `json:"gym_id"`
		Name    string `json:"name"`
		OwnerID uint   `json:"owner_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	account, err := h.ledger.OpenAccount(c.Context(), ledger.OpenAccountInput{
		GymID:   input.GymID,
		Name:    input.Name,
		OwnerID: input.OwnerID,
	})
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Created(c, account)
}

func (h *LedgerHandler) RecordRevenue(c *fiber.Ctx) error {
	var input struct {
		GymID        uint         `json:"gym_id"`
		SourceType   string       `json:"source_type"`
		Amount       money.Amount `json:"amount"`
		OccurredAt   *time.Time   `json:"occurred_at"`
		BookingID    *uint        `json:"booking_id"`
		MembershipID *uint        `json:"membership_id"`
		Description  string       `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	in := ledger.RecordRevenueInput{
		GymID:        input.GymID,
		SourceType:   input.SourceType,
		Gross:        input.Amount,
		BookingID:    input.BookingID,
		MembershipID: input.MembershipID,
		Description:  input.Description,
		RecordedBy:   utils.AdminID(c),
	}
	if input.OccurredAt != nil {
		in.OccurredAt = *input.OccurredAt
	}

	entry, err := h.ledger.RecordRevenue(c.Context(), in)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Created(c, entry)
}

func (h *LedgerHandler) ReverseEntry(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	entry, err := h.ledger.ReverseEntry(c.Context(), ledger.ReverseEntryInput{
		EntryID: id,
		Reason:  input.Reason,
		ActorID: utils.AdminID(c),
	})
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Created(c, entry)
}

func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	gymID, err := uintParam(c, "gymID")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	account, err := h.ledger.GetAccount(c.Context(), gymID)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"gym_id":  account.GymID,
		"name":    account.Name,
		"balance": account.Balance,
	})
}

func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	gymID, err := uintParam(c, "gymID")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	result, err := h.ledger.Reconcile(c.Context(), gymID)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"reconciliation": result,
		"balanced":       result.Balanced(),
	})
}

func (h *LedgerHandler) ReconcileAll(c *fiber.Ctx) error {
	results, err := h.ledger.ReconcileAll(c.Context())
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	drifted := make([]ledger.Reconciliation, 0)
	for _, r := range results {
		if !r.Balanced() {
			drifted = append(drifted, r)
		}
	}
	return utils.Success(c, fiber.Map{
		"checked": len(results),
		"drifted": drifted,
	})
}

