package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/member-portal/member-portal/internal/db/models"
)

// AnnouncementRepository handles announcement database operations
type AnnouncementRepository struct {
	db *sql.DB
}

// NewAnnouncementRepository creates a new AnnouncementRepository
func NewAnnouncementRepository(db *sql.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// CreateAnnouncement creates a new announcement in draft state
func (r *AnnouncementRepository) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	a.ID = uuid.New().String()
	if a.Status == "" {
		a.Status = models.ContentStatusDraft
	}
	if a.Priority == "" {
		a.Priority = models.PriorityMedium
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()

	query := `
		INSERT INTO announcements (id, title, content, committee, priority, status,
		                           published_at, expires_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Content,
		a.Committee,
		a.Priority,
		a.Status,
		a.PublishedAt,
		a.ExpiresAt,
		a.CreatedBy,
		a.CreatedAt,
		a.UpdatedAt,
	)

	return err
}

// GetAnnouncementByID retrieves an announcement by ID
func (r *AnnouncementRepository) GetAnnouncementByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := `
		SELECT id, title, content, committee, priority, status, published_at,
		       expires_at, created_by, created_at, updated_at
		FROM announcements
		WHERE id = $1
	`

	a := &models.Announcement{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.Title,
		&a.Content,
		&a.Committee,
		&a.Priority,
		&a.Status,
		&a.PublishedAt,
		&a.ExpiresAt,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return a, nil
}

// UpdateAnnouncement updates an announcement's editable fields
func (r *AnnouncementRepository) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	a.UpdatedAt = time.Now()

	query := `
		UPDATE announcements
		SET title = $2, content = $3, committee = $4, priority = $5,
		    expires_at = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Content,
		a.Committee,
		a.Priority,
		a.ExpiresAt,
		a.UpdatedAt,
	)

	return err
}

// SetAnnouncementStatus transitions an announcement's lifecycle state.
// Entering published stamps published_at; leaving it clears the stamp.
func (r *AnnouncementRepository) SetAnnouncementStatus(ctx context.Context, id, status string) error {
	var query string
	if status == models.ContentStatusPublished {
		query = `UPDATE announcements SET status = $2, published_at = $3, updated_at = $3 WHERE id = $1`
	} else {
		query = `UPDATE announcements SET status = $2, published_at = NULL, updated_at = $3 WHERE id = $1`
	}

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
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

// DeleteAnnouncement removes an announcement unconditionally
func (r *AnnouncementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	query := `DELETE FROM announcements WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ListAnnouncements retrieves a paginated list. When publishedOnly is set,
// only published announcements that have not passed their expires_at are
// returned, highest priority and newest first.
func (r *AnnouncementRepository) ListAnnouncements(ctx context.Context, publishedOnly bool, committee *string, limit, offset int) ([]*models.Announcement, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	if publishedOnly {
		where += fmt.Sprintf(` AND status = $%d AND (expires_at IS NULL OR expires_at > now())`, paramIndex)
		args = append(args, models.ContentStatusPublished)
		paramIndex++
	}
	if committee != nil {
		where += fmt.Sprintf(` AND (committee = $%d OR committee = 'BOTH')`, paramIndex)
		args = append(args, *committee)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM announcements` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY updated_at DESC`
	if publishedOnly {
		order = ` ORDER BY
			CASE priority
				WHEN 'urgent' THEN 0
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				ELSE 3
			END, published_at DESC`
	}

	query := `
		SELECT id, title, content, committee, priority, status, published_at,
		       expires_at, created_by, created_at, updated_at
		FROM announcements` + where + order +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	anns := make([]*models.Announcement, 0)
	for rows.Next() {
		a := &models.Announcement{}
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Content,
			&a.Committee,
			&a.Priority,
			&a.Status,
			&a.PublishedAt,
			&a.ExpiresAt,
			&a.CreatedBy,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		anns = append(anns, a)
	}

	return anns, total, rows.Err()
}

// ExpirePublished archives published announcements whose expires_at has
// passed. Returns the number of announcements archived.
func (r *AnnouncementRepository) ExpirePublished(ctx context.Context) (int64, error) {
	query := `
		UPDATE announcements
		SET status = $1, updated_at = now()
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= now()
	`

	result, err := r.db.ExecContext(ctx, query, models.ContentStatusArchived, models.ContentStatusPublished)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
