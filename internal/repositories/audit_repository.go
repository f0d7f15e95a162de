package repositories

import (
	"context"
	"fmt"
	"time"

	"gymledger/internal/models"

	"gorm.io/gorm"
)

// AuditRepository persists the audit trail and the notification outbox.
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, q AuditQuery) ([]models.AuditLog, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	MarkNotificationPublished(ctx context.Context, id uint, at time.Time) error
	ListNotifications(ctx context.Context, gymID uint) ([]models.Notification, error)
	ListQueuedNotifications(ctx context.Context, limit int) ([]models.Notification, error)
}

type AuditQuery struct {
	ActorID *uint
	Action  string
	Limit   int
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListAuditLogs(ctx context.Context, q AuditQuery) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if q.ActorID != nil {
		query = query.Where("actor_id = ?", *q.ActorID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}

	var logs []models.AuditLog
	if err := query.Scopes(paginate(q.Limit, 0)).Order("id ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

func (r *auditRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *auditRepository) MarkNotificationPublished(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.NotificationPublished, "published_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification published: %w", err)
	}
	return nil
}

func (r *auditRepository) ListNotifications(ctx context.Context, gymID uint) ([]models.Notification, error) {
	var items []models.Notification
	if err := r.db.WithContext(ctx).Where("gym_id = ?", gymID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

// ListQueuedNotifications returns the oldest notifications not yet published.
func (r *auditRepository) ListQueuedNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	var items []models.Notification
	err := r.db.WithContext(ctx).
		Where("status = ?", models.NotificationQueued).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queued notifications: %w", err)
	}
	return items, nil
}
