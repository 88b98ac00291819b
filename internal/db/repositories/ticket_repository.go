package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/member-portal/member-portal/internal/db/models"
)

// ErrTicketClosed means the ticket is in its terminal state and cannot change
var ErrTicketClosed = errors.New("ticket is closed")

// TicketFilters holds the optional filters for listing helpdesk tickets
type TicketFilters struct {
	UserID     *string
	Status     *string
	Priority   *string
	AssignedTo *string
}

// TicketRepository handles helpdesk ticket database operations
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// CreateTicket creates a new ticket in the open state
func (r *TicketRepository) CreateTicket(ctx context.Context, t *models.Ticket) error {
	t.ID = uuid.New().String()
	t.Status = models.TicketStatusOpen
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()

	query := `
		INSERT INTO helpdesk_tickets (id, user_id, subject, description, category,
		                              status, priority, assigned_to, resolved_at,
		                              created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.Subject,
		t.Description,
		t.Category,
		t.Status,
		t.Priority,
		t.AssignedTo,
		t.ResolvedAt,
		t.CreatedAt,
		t.UpdatedAt,
	)

	return err
}

// GetTicketByID retrieves a ticket with its requester's name
func (r *TicketRepository) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := `
		SELECT t.id, t.user_id, t.subject, t.description, t.category, t.status,
		       t.priority, t.assigned_to, t.resolved_at, t.created_at, t.updated_at,
		       p.full_name
		FROM helpdesk_tickets t
		LEFT JOIN profiles p ON p.user_id = t.user_id
		WHERE t.id = $1
	`

	t := &models.Ticket{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.UserID,
		&t.Subject,
		&t.Description,
		&t.Category,
		&t.Status,
		&t.Priority,
		&t.AssignedTo,
		&t.ResolvedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.RequesterName,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return t, nil
}

// UpdateTicketStatus moves a ticket through its lifecycle. Entering resolved
// or closed stamps resolved_at; reopening clears it. Closed tickets are
// terminal, so updates against them return ErrTicketClosed.
func (r *TicketRepository) UpdateTicketStatus(ctx context.Context, id, status string) error {
	var resolvedAt interface{}
	if status == models.TicketStatusResolved || status == models.TicketStatusClosed {
		resolvedAt = time.Now()
	}

	query := `
		UPDATE helpdesk_tickets
		SET status = $2, resolved_at = $3, updated_at = $4
		WHERE id = $1 AND status != $5
	`

	result, err := r.db.ExecContext(ctx, query, id, status, resolvedAt, time.Now(), models.TicketStatusClosed)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		existing, err := r.GetTicketByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return sql.ErrNoRows
		}
		return ErrTicketClosed
	}

	return nil
}

// AssignTicket assigns a ticket to a helpdesk user and marks it in progress
func (r *TicketRepository) AssignTicket(ctx context.Context, id, assigneeID string) error {
	query := `
		UPDATE helpdesk_tickets
		SET assigned_to = $2, status = $3, updated_at = $4
		WHERE id = $1 AND status != $5
	`

	result, err := r.db.ExecContext(ctx, query, id, assigneeID, models.TicketStatusInProgress, time.Now(), models.TicketStatusClosed)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		existing, err := r.GetTicketByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return sql.ErrNoRows
		}
		return ErrTicketClosed
	}

	return nil
}

// UpdateTicketPriority changes a ticket's priority
func (r *TicketRepository) UpdateTicketPriority(ctx context.Context, id, priority string) error {
	query := `UPDATE helpdesk_tickets SET priority = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, priority, time.Now())
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

// ListTickets retrieves a filtered, paginated list of tickets, newest first
func (r *TicketRepository) ListTickets(ctx context.Context, filters TicketFilters, limit, offset int) ([]*models.Ticket, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.UserID != nil {
		where += fmt.Sprintf(` AND t.user_id = $%d`, paramIndex)
		args = append(args, *filters.UserID)
		paramIndex++
	}
	if filters.Status != nil {
		where += fmt.Sprintf(` AND t.status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}
	if filters.Priority != nil {
		where += fmt.Sprintf(` AND t.priority = $%d`, paramIndex)
		args = append(args, *filters.Priority)
		paramIndex++
	}
	if filters.AssignedTo != nil {
		where += fmt.Sprintf(` AND t.assigned_to = $%d`, paramIndex)
		args = append(args, *filters.AssignedTo)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM helpdesk_tickets t` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT t.id, t.user_id, t.subject, t.description, t.category, t.status,
		       t.priority, t.assigned_to, t.resolved_at, t.created_at, t.updated_at,
		       p.full_name
		FROM helpdesk_tickets t
		LEFT JOIN profiles p ON p.user_id = t.user_id` + where + `
		ORDER BY t.created_at DESC` +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := make([]*models.Ticket, 0)
	for rows.Next() {
		t := &models.Ticket{}
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Subject,
			&t.Description,
			&t.Category,
			&t.Status,
			&t.Priority,
			&t.AssignedTo,
			&t.ResolvedAt,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.RequesterName,
		)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, t)
	}

	return tickets, total, rows.Err()
}
