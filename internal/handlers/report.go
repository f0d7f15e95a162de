package handlers

import (
	"time"

	"gymledger/internal/services/report"
	"gymledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reports report.Service
	loc     *time.Location
	log     *zap.Logger
}

func NewReportHandler(reportService report.Service, loc *time.Location, log *zap.Logger) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{
		reports: reportService,
		loc:     loc,
		log:     log.Named("handlers.report"),
	}
}

// GetReport serves GET /api/admin/reports?dimension=&preset=&start=&end=&gym_id=&tier=&source_type=
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	gymID, err := optionalUintQuery(c, "gym_id")
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	start, err := optionalDateQuery(c, "start", h.loc)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	end, err := optionalDateQuery(c, "end", h.loc)
	if err != nil {
		return handleServiceError(c, h.log, err)
	}

	summary, err := h.reports.Aggregate(c.Context(), report.Filter{
		Preset:     c.Query("preset"),
		Start:      start,
		End:        end,
		GymID:      gymID,
		Tier:       c.Query("tier"),
		SourceType: c.Query("source_type"),
	}, report.Dimension(c.Query("dimension", string(report.ByDay))))
	if err != nil {
		return handleServiceError(c, h.log, err)
	}
	return utils.Success(c, summary)
}

func (h *ReportHandler) ListPresets(c *fiber.Ctx) error {
	return utils.Success(c, fiber.Map{"presets": report.Presets})
}
