// Package notification implements the audit and notification sink the
// ledger services report to after their transactions commit.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gymledger/internal/clock"
	"gymledger/internal/models"
	"gymledger/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives audit events and gym-owner notifications. Callers treat it
// as best-effort: a failure is logged and never undoes ledger state.
type Sink interface {
	RecordAudit(ctx context.Context, actorID uint, action string, details map[string]interface{}) error
	EnqueueNotification(ctx context.Context, gymID uint, title, body string) error
}

// Publisher delivers enqueued notifications to a message broker.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Message is the broker payload for one notification.
type Message struct {
	MessageID string    `json:"message_id"`
	GymID     uint      `json:"gym_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

const flushBatchSize = 100

type Service struct {
	repo      repositories.AuditRepository
	publisher Publisher
	exchange  string
	clock     clock.Clock
	log       *zap.Logger
}

// NewService creates a sink backed by the audit repository. publisher may be
// nil, in which case notifications stay queued in the outbox table.
func NewService(repo repositories.AuditRepository, publisher Publisher, exchange string, clk clock.Clock, log *zap.Logger) *Service {
	if repo == nil {
		panic("audit repository is required")
	}
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if exchange == "" {
		exchange = "notifications"
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		exchange:  exchange,
		clock:     clk,
		log:       log.Named("notification"),
	}
}

func (s *Service) RecordAudit(ctx context.Context, actorID uint, action string, details map[string]interface{}) error {
	entry := &models.AuditLog{
		ActorID:   actorID,
		Action:    action,
		Details:   models.JSON(details),
		CreatedAt: s.clock.Now(),
	}
	if i := strings.IndexByte(action, '.'); i > 0 {
		entry.TargetType = action[:i]
	}
	if id, ok := details["id"]; ok {
		entry.TargetID = fmt.Sprint(id)
	}
	return s.repo.CreateAuditLog(ctx, entry)
}

func (s *Service) EnqueueNotification(ctx context.Context, gymID uint, title, body string) error {
	n := &models.Notification{
		MessageID: uuid.NewString(),
		GymID:     gymID,
		Title:     title,
		Body:      body,
		Status:    models.NotificationQueued,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}

	if err := s.publish(ctx, n); err != nil {
		return fmt.Errorf("notification %s queued but not published: %w", n.MessageID, err)
	}
	return nil
}

// FlushQueued retries publishing notifications left in the outbox and
// returns how many were delivered. It stops at the first broker failure.
func (s *Service) FlushQueued(ctx context.Context) (int, error) {
	if s.publisher == nil {
		return 0, nil
	}
	queued, err := s.repo.ListQueuedNotifications(ctx, flushBatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range queued {
		if err := s.publish(ctx, &queued[i]); err != nil {
			return sent, fmt.Errorf("failed to publish notification %s: %w", queued[i].MessageID, err)
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("flushed queued notifications", zap.Int("count", sent))
	}
	return sent, nil
}

func (s *Service) publish(ctx context.Context, n *models.Notification) error {
	msg := Message{MessageID: n.MessageID, GymID: n.GymID, Title: n.Title, Body: n.Body, CreatedAt: n.CreatedAt}
	routingKey := fmt.Sprintf("gym.%d.notification", n.GymID)
	if err := s.publisher.Publish(ctx, s.exchange, routingKey, msg); err != nil {
		return err
	}
	return s.repo.MarkNotificationPublished(ctx, n.ID, s.clock.Now())
}
