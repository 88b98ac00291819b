package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/member-portal/member-portal/internal/db/models"
)

var (
	// ErrEventFull means the event has reached its max_attendees limit
	ErrEventFull = errors.New("event is at capacity")
	// ErrAlreadyRegistered means the user already holds a registration for the event
	ErrAlreadyRegistered = errors.New("user is already registered for this event")
	// ErrEventNotOpen means the event is not published, so it cannot take registrations
	ErrEventNotOpen = errors.New("event is not open for registration")
)

// EventRepository handles event and event registration database operations
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ============================================================================
// Event Operations
// ============================================================================

// CreateEvent creates a new event in draft state
func (r *EventRepository) CreateEvent(ctx context.Context, e *models.Event) error {
	e.ID = uuid.New().String()
	if e.Status == "" {
		e.Status = models.ContentStatusDraft
	}
	if e.Speakers == nil {
		e.Speakers = []string{}
	}
	e.CreatedAt = time.Now()
	e.UpdatedAt = time.Now()

	speakersJSON, err := json.Marshal(e.Speakers)
	if err != nil {
		return fmt.Errorf("failed to marshal speakers: %w", err)
	}

	query := `
		INSERT INTO events (id, title, description, event_type, committee, start_date,
		                    end_date, location, online_link, speakers, max_attendees,
		                    status, published_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.db.ExecContext(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.EventType,
		e.Committee,
		e.StartDate,
		e.EndDate,
		e.Location,
		e.OnlineLink,
		speakersJSON,
		e.MaxAttendees,
		e.Status,
		e.PublishedAt,
		e.CreatedBy,
		e.CreatedAt,
		e.UpdatedAt,
	)

	return err
}

// GetEventByID retrieves an event with its current registration count
func (r *EventRepository) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT e.id, e.title, e.description, e.event_type, e.committee, e.start_date,
		       e.end_date, e.location, e.online_link, e.speakers, e.max_attendees,
		       e.status, e.published_at, e.created_by, e.created_at, e.updated_at,
		       COUNT(er.id) AS registered_count
		FROM events e
		LEFT JOIN event_registrations er ON er.event_id = e.id
		WHERE e.id = $1
		GROUP BY e.id
	`

	row := r.db.QueryRowxContext(ctx, query, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return e, nil
}

// UpdateEvent updates an event's editable fields. Status and published_at are
// managed separately by SetEventStatus.
func (r *EventRepository) UpdateEvent(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now()
	if e.Speakers == nil {
		e.Speakers = []string{}
	}

	speakersJSON, err := json.Marshal(e.Speakers)
	if err != nil {
		return fmt.Errorf("failed to marshal speakers: %w", err)
	}

	query := `
		UPDATE events
		SET title = $2, description = $3, event_type = $4, committee = $5,
		    start_date = $6, end_date = $7, location = $8, online_link = $9,
		    speakers = $10, max_attendees = $11, updated_at = $12
		WHERE id = $1
	`

	_, err = r.db.ExecContext(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.EventType,
		e.Committee,
		e.StartDate,
		e.EndDate,
		e.Location,
		e.OnlineLink,
		speakersJSON,
		e.MaxAttendees,
		e.UpdatedAt,
	)

	return err
}

// SetEventStatus transitions an event's lifecycle state. Entering published
// stamps published_at; leaving it clears the stamp.
func (r *EventRepository) SetEventStatus(ctx context.Context, id, status string) error {
	var query string
	if status == models.ContentStatusPublished {
		query = `UPDATE events SET status = $2, published_at = $3, updated_at = $3 WHERE id = $1`
	} else {
		query = `UPDATE events SET status = $2, published_at = NULL, updated_at = $3 WHERE id = $1`
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

// DeleteEvent removes an event and, via cascade, its registrations
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ListEvents retrieves a paginated list with registration counts. When
// publishedOnly is set only published events are returned, soonest first.
func (r *EventRepository) ListEvents(ctx context.Context, publishedOnly bool, committee *string, limit, offset int) ([]*models.Event, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	if publishedOnly {
		where += fmt.Sprintf(` AND e.status = $%d`, paramIndex)
		args = append(args, models.ContentStatusPublished)
		paramIndex++
	}
	if committee != nil {
		where += fmt.Sprintf(` AND (e.committee = $%d OR e.committee = 'BOTH')`, paramIndex)
		args = append(args, *committee)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM events e` + where
	if err := r.db.QueryRowxContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY e.updated_at DESC`
	if publishedOnly {
		order = ` ORDER BY e.start_date ASC`
	}

	query := `
		SELECT e.id, e.title, e.description, e.event_type, e.committee, e.start_date,
		       e.end_date, e.location, e.online_link, e.speakers, e.max_attendees,
		       e.status, e.published_at, e.created_by, e.created_at, e.updated_at,
		       COUNT(er.id) AS registered_count
		FROM events e
		LEFT JOIN event_registrations er ON er.event_id = e.id` + where + `
		GROUP BY e.id` + order +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}

	return events, total, rows.Err()
}

// ============================================================================
// Registration Operations
// ============================================================================

// RegisterForEvent registers a user for a published event. The capacity check
// runs inside the same transaction as the insert so two concurrent
// registrations cannot both take the last seat; the duplicate check is backed
// by the UNIQUE (event_id, user_id) constraint.
func (r *EventRepository) RegisterForEvent(ctx context.Context, eventID, userID string) (*models.EventRegistration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	var maxAttendees sql.NullInt64
	err = tx.QueryRowxContext(ctx,
		`SELECT status, max_attendees FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&status, &maxAttendees)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	if status != models.ContentStatusPublished {
		return nil, ErrEventNotOpen
	}

	if maxAttendees.Valid {
		var count int64
		err = tx.QueryRowxContext(ctx,
			`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`,
			eventID,
		).Scan(&count)
		if err != nil {
			return nil, err
		}
		if count >= maxAttendees.Int64 {
			return nil, ErrEventFull
		}
	}

	reg := &models.EventRegistration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: time.Now(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO event_registrations (id, event_id, user_id, registered_at)
		 VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.EventID, reg.UserID, reg.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return reg, nil
}

// CancelRegistration removes a user's registration for an event
func (r *EventRepository) CancelRegistration(ctx context.Context, eventID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
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

// ListRegistrationsForEvent retrieves the registrations for one event
func (r *EventRepository) ListRegistrationsForEvent(ctx context.Context, eventID string) ([]*models.EventRegistration, error) {
	query := `
		SELECT id, event_id, user_id, registered_at
		FROM event_registrations
		WHERE event_id = $1
		ORDER BY registered_at ASC
	`

	rows, err := r.db.QueryxContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*models.EventRegistration, 0)
	for rows.Next() {
		reg := &models.EventRegistration{}
		err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

// ListRegistrationsForUser retrieves a user's registrations with event titles
func (r *EventRepository) ListRegistrationsForUser(ctx context.Context, userID string) ([]*models.EventRegistration, error) {
	query := `
		SELECT er.id, er.event_id, er.user_id, er.registered_at, e.title
		FROM event_registrations er
		JOIN events e ON e.id = er.event_id
		WHERE er.user_id = $1
		ORDER BY er.registered_at DESC
	`

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*models.EventRegistration, 0)
	for rows.Next() {
		reg := &models.EventRegistration{}
		err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.EventTitle)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

// scanEvent scans one event row including the JSONB speakers column and the
// joined registered_count
func scanEvent(row sqlx.ColScanner) (*models.Event, error) {
	e := &models.Event{}
	var speakersJSON []byte

	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.EventType,
		&e.Committee,
		&e.StartDate,
		&e.EndDate,
		&e.Location,
		&e.OnlineLink,
		&speakersJSON,
		&e.MaxAttendees,
		&e.Status,
		&e.PublishedAt,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.RegisteredCount,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(speakersJSON, &e.Speakers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal speakers: %w", err)
	}

	return e, nil
}
