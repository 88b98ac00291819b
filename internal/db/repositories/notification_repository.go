package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/member-portal/member-portal/internal/db/models"
)

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification creates an unread notification for a user
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.ID = uuid.New().String()
	n.Read = false
	n.CreatedAt = time.Now()

	query := `
		INSERT INTO notifications (id, user_id, type, title, message, read, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.Read,
		n.RelatedID,
		n.CreatedAt,
	)

	return err
}

// ListNotifications retrieves a user's notifications, newest first. When
// unreadOnly is set only unread notifications are returned.
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, int, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{userID}
	if unreadOnly {
		where += ` AND read = FALSE`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM notifications` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, type, title, message, read, related_id, created_at
		FROM notifications` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Read,
			&n.RelatedID,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}

	return notifications, total, rows.Err()
}

// CountUnread returns the number of unread notifications for a user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

// MarkRead marks one notification read. Scoped to the owning user so one
// member cannot touch another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// MarkAllRead marks every unread notification for a user read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
