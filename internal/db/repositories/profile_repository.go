package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/member-portal/member-portal/internal/db/models"
)

// ProfileRepository handles member profile database operations
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves a profile by user ID
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, full_name, phone, membership_number, avatar_url, bio,
		       expertise_areas, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.FullName,
		&p.Phone,
		&p.MembershipNumber,
		&p.AvatarURL,
		&p.Bio,
		pq.Array(&p.ExpertiseAreas),
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

// UpsertProfile creates or updates a profile. Signup seeds an empty row, but
// the upsert keeps self-service profile editing safe against a missing one.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now()

	query := `
		INSERT INTO profiles (user_id, full_name, phone, membership_number, avatar_url, bio,
		                      expertise_areas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET full_name = EXCLUDED.full_name,
		              phone = EXCLUDED.phone,
		              membership_number = EXCLUDED.membership_number,
		              avatar_url = EXCLUDED.avatar_url,
		              bio = EXCLUDED.bio,
		              expertise_areas = EXCLUDED.expertise_areas,
		              updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		p.UserID,
		p.FullName,
		p.Phone,
		p.MembershipNumber,
		p.AvatarURL,
		p.Bio,
		pq.Array(p.ExpertiseAreas),
		p.UpdatedAt,
	)

	return err
}
