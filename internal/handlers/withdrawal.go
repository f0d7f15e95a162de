package handlers

import (
	"time"

	"gymledger/internal/money"
	"gymledger/internal/services/withdrawal"
	"gymledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WithdrawalHandler struct {
	withdrawals withdrawal.Service
	loc         *time.Location
	log         *zap.Logger
}

func NewWithdrawalHandler(withdrawalService withdrawal.Service, loc *time.Location, log *zap.Logger) *WithdrawalHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &WithdrawalHandler{
		withdrawals: withdrawalService,
		loc:         loc,
		log:         log.Named("handlers.withdrawal"),
	}
}

func (h *WithdrawalHandler) RequestWithdrawal(c *fiber.Ctx) error {
	gymID, err := uintParam(c, "gymID")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	var input struct {
		Amount money.Amount `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.withdrawals.RequestWithdrawal(c.Context(), withdrawal.RequestInput{
		GymID:       gymID,
		Amount:      input.Amount,
		RequestedBy: utils.AdminID(c),
	})
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Created(c, w)
}

func (h *WithdrawalHandler) ListWithdrawals(c *fiber.Ctx) error {
	gymID, err := optionalUintQuery(c, "gym_id")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	from, err := optionalDateQuery(c, "from", h.loc)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	to, err := optionalDateQuery(c, "to", h.loc)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	if to != nil {
		// the date is inclusive; the query bound is not
		end := to.AddDate(0, 0, 1)
		to = &end
	}

	p := utils.GetPagination(c, 1, withdrawal.DefaultPageSize)
	page, err := h.withdrawals.ListWithdrawals(c.Context(), withdrawal.ListFilter{
		GymID:         gymID,
		Status:        c.Query("status"),
		RequestedFrom: from,
		RequestedTo:   to,
		Page:          p.Page,
		Limit:         p.Limit,
	})
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	p.Page, p.Limit = page.Page, page.Limit
	p.SetTotal(page.Total)
	return utils.Success(c, utils.NewPaginatedResponse(page.Items, p))
}

func (h *WithdrawalHandler) GetWithdrawal(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	w, err := h.withdrawals.GetWithdrawal(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Success(c, w)
}

func (h *WithdrawalHandler) Settle(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	var input struct {
		Reference string `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.withdrawals.Settle(c.Context(), withdrawal.SettleInput{
		WithdrawalID: id,
		Reference:    input.Reference,
		AdminID:      utils.AdminID(c),
	})
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Success(c, w)
}

func (h *WithdrawalHandler) Reject(c *fiber.Ctx) error {
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

	w, err := h.withdrawals.Reject(c.Context(), withdrawal.RejectInput{
		WithdrawalID: id,
		Reason:       input.Reason,
		AdminID:      utils.AdminID(c),
	})
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Success(c, w)
}
