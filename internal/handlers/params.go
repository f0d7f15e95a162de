package handlers

import (
	"strconv"
	"time"

	apperrors "gymledger/internal/errors"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

func uintParam(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperrors.Validation(name, "must be a positive integer")
	}
	return uint(v), nil
}

func optionalUintQuery(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, apperrors.Validation(name, "must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

// optionalDateQuery parses a YYYY-MM-DD query value as midnight in loc.
func optionalDateQuery(c *fiber.Ctx, name string, loc *time.Location) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, apperrors.Validation(name, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
