package repositories

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Query predicates shared by the ledger and report repositories. Each one is
// a no-op when its argument is unset, so callers compose them freely.

func withdrawalsForGym(gymID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if gymID == nil {
			return db
		}
		return db.Where("gym_id = ?", *gymID)
	}
}

func withdrawalsWithStatus(status string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", status)
	}
}

func withdrawalsRequestedBetween(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("requested_at >= ?", from.UTC())
		}
		if to != nil {
			db = db.Where("requested_at < ?", to.UTC())
		}
		return db
	}
}

func entriesOccurredBetween(from, to time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("e.occurred_at >= ? AND e.occurred_at < ?", from.UTC(), to.UTC())
	}
}

func entriesForGym(gymID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if gymID == nil {
			return db
		}
		return db.Where("e.gym_id = ?", *gymID)
	}
}

func entriesWithSource(sourceType string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if sourceType == "" {
			return db
		}
		return db.Where("e.source_type = ?", sourceType)
	}
}

func entriesInTier(tier string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tier == "" {
			return db
		}
		return db.Where(tierExpr+" = ?", tier)
	}
}

func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// PostgreSQL 23505 and SQLite 2067
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
