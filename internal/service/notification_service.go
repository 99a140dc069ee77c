package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
)

const unreadCountTTL = 5 * time.Minute

// notificationSink is the slice of NotificationService the sweeps and the
// assignment engine depend on.
type notificationSink interface {
	Append(ctx context.Context, batch []domain.Notification) error
}

// NotificationService persists notification batches and serves the
// per-user read API, caching unread counts in Redis.
type NotificationService struct {
	repo   repository.NotificationRepository
	cache  *persistence.Redis
	logger *zap.Logger
}

// NewNotificationService creates the service. cache may be nil; counting
// then always hits the store.
func NewNotificationService(repo repository.NotificationRepository, cache *persistence.Redis, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, cache: cache, logger: logger}
}

// Append persists the batch as one all-or-nothing write and drops the
// unread-count cache entries of every affected user. Cache trouble is
// logged, never surfaced; the store is the source of truth.
func (n *NotificationService) Append(ctx context.Context, batch []domain.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	if err := n.repo.AppendBatch(ctx, batch); err != nil {
		return err
	}

	seen := make(map[int64]struct{}, len(batch))
	for _, item := range batch {
		if _, ok := seen[item.UserID]; ok {
			continue
		}
		seen[item.UserID] = struct{}{}
		n.invalidateUnread(ctx, item.UserID)
	}
	return nil
}

// ListForUser returns the user's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	return n.repo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount returns the user's unread total, served from Redis when warm.
func (n *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	key := unreadKey(userID)
	if n.cache != nil && n.cache.Client != nil {
		if cached, err := n.cache.Client.Get(ctx, key).Result(); err == nil {
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	count, err := n.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n.cache != nil && n.cache.Client != nil {
		if err := n.cache.Client.Set(ctx, key, count, unreadCountTTL).Err(); err != nil {
			n.logger.Debug("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead flips the read flag for one notification owned by the user.
func (n *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	if err := n.repo.MarkRead(ctx, id, userID); err != nil {
		return err
	}
	n.invalidateUnread(ctx, userID)
	return nil
}

// PruneRead deletes read notifications older than the retention cutoff.
func (n *NotificationService) PruneRead(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	return n.repo.DeleteReadBefore(ctx, now.Add(-retention))
}

func (n *NotificationService) invalidateUnread(ctx context.Context, userID int64) {
	if n.cache == nil || n.cache.Client == nil {
		return
	}
	if err := n.cache.Client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		n.logger.Debug("unread count cache invalidation failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

func unreadKey(userID int64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// RegisterHandlers subscribes delivery logging to complaint events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventComplaintCreated, n.logEvent)
	dispatcher.Subscribe(events.EventComplaintAssigned, n.logEvent)
	dispatcher.Subscribe(events.EventComplaintEscalated, n.logEvent)
	dispatcher.Subscribe(events.EventComplaintStatusChanged, n.logEvent)
	dispatcher.Subscribe(events.EventComplaintResolved, n.logEvent)
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int64("complaint_id", event.ComplaintID),
		zap.Any("payload", event.Payload))
	return nil
}
