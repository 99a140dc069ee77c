package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	// AppendBatch writes the whole batch inside one transaction; either
	// every notification lands or none do.
	AppendBatch(ctx context.Context, batch []domain.Notification) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	// DeleteReadBefore prunes read notifications older than the cutoff and
	// returns how many rows were removed.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) AppendBatch(ctx context.Context, batch []domain.Notification) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO notifications (user_id, complaint_id, category, message)
        VALUES ($1,$2,$3,$4)`

	b := &pgx.Batch{}
	for _, n := range batch {
		b.Queue(query, n.UserID, n.ComplaintID, n.Category, n.Message)
	}

	results := tx.SendBatch(ctx, b)
	for range batch {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, user_id, complaint_id, category, message, is_read, created_at
        FROM notifications
        WHERE user_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.ComplaintID,
			&n.Category,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read=FALSE`
	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM notifications WHERE is_read=TRUE AND created_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
