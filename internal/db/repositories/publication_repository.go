package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/member-portal/member-portal/internal/db/models"
)

// PublicationRepository handles publication database operations
type PublicationRepository struct {
	db *sql.DB
}

// NewPublicationRepository creates a new PublicationRepository
func NewPublicationRepository(db *sql.DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

// CreatePublication creates a new publication in draft state
func (r *PublicationRepository) CreatePublication(ctx context.Context, p *models.Publication) error {
	p.ID = uuid.New().String()
	if p.Status == "" {
		p.Status = models.ContentStatusDraft
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	query := `
		INSERT INTO publications (id, title, description, content, category, file_url,
		                          thumbnail_url, committee, status, published_at,
		                          created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Content,
		p.Category,
		p.FileURL,
		p.ThumbnailURL,
		p.Committee,
		p.Status,
		p.PublishedAt,
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)

	return err
}

// GetPublicationByID retrieves a publication by ID
func (r *PublicationRepository) GetPublicationByID(ctx context.Context, id string) (*models.Publication, error) {
	query := `
		SELECT id, title, description, content, category, file_url, thumbnail_url,
		       committee, status, published_at, created_by, created_at, updated_at
		FROM publications
		WHERE id = $1
	`

	p := &models.Publication{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Content,
		&p.Category,
		&p.FileURL,
		&p.ThumbnailURL,
		&p.Committee,
		&p.Status,
		&p.PublishedAt,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return p, nil
}

// UpdatePublication updates a publication's editable fields. Status and
// published_at are managed separately by SetPublicationStatus.
func (r *PublicationRepository) UpdatePublication(ctx context.Context, p *models.Publication) error {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE publications
		SET title = $2, description = $3, content = $4, category = $5,
		    file_url = $6, thumbnail_url = $7, committee = $8, updated_at = $9
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Content,
		p.Category,
		p.FileURL,
		p.ThumbnailURL,
		p.Committee,
		p.UpdatedAt,
	)

	return err
}

// SetPublicationStatus transitions a publication's lifecycle state.
// Entering published stamps published_at; leaving it clears the stamp.
// The body columns are untouched by any transition.
func (r *PublicationRepository) SetPublicationStatus(ctx context.Context, id, status string) error {
	var query string
	if status == models.ContentStatusPublished {
		query = `UPDATE publications SET status = $2, published_at = $3, updated_at = $3 WHERE id = $1`
	} else {
		query = `UPDATE publications SET status = $2, published_at = NULL, updated_at = $3 WHERE id = $1`
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

// DeletePublication removes a publication unconditionally
func (r *PublicationRepository) DeletePublication(ctx context.Context, id string) error {
	query := `DELETE FROM publications WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ListPublications retrieves a paginated list. When publishedOnly is set only
// published items are returned, newest publication first; that is the member
// view. Editors see every status ordered by last update.
func (r *PublicationRepository) ListPublications(ctx context.Context, publishedOnly bool, committee *string, limit, offset int) ([]*models.Publication, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	if publishedOnly {
		where += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, models.ContentStatusPublished)
		paramIndex++
	}
	if committee != nil {
		where += fmt.Sprintf(` AND (committee = $%d OR committee = 'BOTH')`, paramIndex)
		args = append(args, *committee)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM publications` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY updated_at DESC`
	if publishedOnly {
		order = ` ORDER BY published_at DESC`
	}

	query := `
		SELECT id, title, description, content, category, file_url, thumbnail_url,
		       committee, status, published_at, created_by, created_at, updated_at
		FROM publications` + where + order +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pubs := make([]*models.Publication, 0)
	for rows.Next() {
		p := &models.Publication{}
		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Content,
			&p.Category,
			&p.FileURL,
			&p.ThumbnailURL,
			&p.Committee,
			&p.Status,
			&p.PublishedAt,
			&p.CreatedBy,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		pubs = append(pubs, p)
	}

	return pubs, total, rows.Err()
}
