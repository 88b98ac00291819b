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

// ErrResponseNotPending is returned by moderation operations when the target
// response is not in the responded state (already moderated, or missing).
var ErrResponseNotPending = errors.New("response is not pending moderation")

// QueryFilters narrows ListQueries. Nil fields are ignored.
type QueryFilters struct {
	MemberID *string
	Status   *string
	Category *string
}

// ForumRepository handles query and response database operations
type ForumRepository struct {
	db *sql.DB
}

// NewForumRepository creates a new ForumRepository
func NewForumRepository(db *sql.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

// CreateQuery creates a new query in submitted state
func (r *ForumRepository) CreateQuery(ctx context.Context, q *models.Query) error {
	q.ID = uuid.New().String()
	q.Status = models.QueryStatusSubmitted
	q.EscalationCount = 0
	q.CreatedAt = time.Now()
	q.UpdatedAt = time.Now()

	query := `
		INSERT INTO forum_queries (id, member_id, category, subject, question, status,
		                           escalation_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		q.ID,
		q.MemberID,
		q.Category,
		q.Subject,
		q.Question,
		q.Status,
		q.EscalationCount,
		q.CreatedAt,
		q.UpdatedAt,
	)

	return err
}

// GetQueryByID retrieves a query by ID, joined with the member's name
func (r *ForumRepository) GetQueryByID(ctx context.Context, queryID string) (*models.Query, error) {
	query := `
		SELECT q.id, q.member_id, q.category, q.subject, q.question, q.status,
		       q.assigned_expert_id, q.assigned_at, q.escalation_count,
		       q.created_at, q.updated_at, p.full_name
		FROM forum_queries q
		LEFT JOIN profiles p ON p.user_id = q.member_id
		WHERE q.id = $1
	`

	q := &models.Query{}
	err := r.db.QueryRowContext(ctx, query, queryID).Scan(
		&q.ID,
		&q.MemberID,
		&q.Category,
		&q.Subject,
		&q.Question,
		&q.Status,
		&q.AssignedExpertID,
		&q.AssignedAt,
		&q.EscalationCount,
		&q.CreatedAt,
		&q.UpdatedAt,
		&q.MemberName,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return q, nil
}

// ListQueries retrieves a filtered, paginated list of queries, newest first
func (r *ForumRepository) ListQueries(ctx context.Context, filters QueryFilters, limit, offset int) ([]*models.Query, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.MemberID != nil {
		where += fmt.Sprintf(` AND q.member_id = $%d`, paramIndex)
		args = append(args, *filters.MemberID)
		paramIndex++
	}
	if filters.Status != nil {
		where += fmt.Sprintf(` AND q.status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}
	if filters.Category != nil {
		where += fmt.Sprintf(` AND q.category = $%d`, paramIndex)
		args = append(args, *filters.Category)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM forum_queries q` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `
		SELECT q.id, q.member_id, q.category, q.subject, q.question, q.status,
		       q.assigned_expert_id, q.assigned_at, q.escalation_count,
		       q.created_at, q.updated_at, p.full_name
		FROM forum_queries q
		LEFT JOIN profiles p ON p.user_id = q.member_id` + where +
		fmt.Sprintf(` ORDER BY q.created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	queries := make([]*models.Query, 0)
	for rows.Next() {
		q := &models.Query{}
		err := rows.Scan(
			&q.ID,
			&q.MemberID,
			&q.Category,
			&q.Subject,
			&q.Question,
			&q.Status,
			&q.AssignedExpertID,
			&q.AssignedAt,
			&q.EscalationCount,
			&q.CreatedAt,
			&q.UpdatedAt,
			&q.MemberName,
		)
		if err != nil {
			return nil, 0, err
		}
		queries = append(queries, q)
	}

	return queries, total, rows.Err()
}

// SubmitResponse inserts an expert response and moves the query to responded,
// assigning the responding expert, in a single transaction.
func (r *ForumRepository) SubmitResponse(ctx context.Context, resp *models.Response) error {
	resp.ID = uuid.New().String()
	resp.Status = models.ResponseStatusResponded
	resp.CreatedAt = time.Now()
	resp.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO forum_responses (id, query_id, expert_id, response, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		resp.ID,
		resp.QueryID,
		resp.ExpertID,
		resp.Response,
		resp.Status,
		resp.CreatedAt,
		resp.UpdatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE forum_queries
		SET status = $2, assigned_expert_id = $3, assigned_at = $4, updated_at = $4
		WHERE id = $1
	`, resp.QueryID, models.QueryStatusResponded, resp.ExpertID, time.Now())
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetResponseByID retrieves a response by ID
func (r *ForumRepository) GetResponseByID(ctx context.Context, responseID string) (*models.Response, error) {
	query := `
		SELECT id, query_id, expert_id, response, status, moderated_by,
		       moderated_at, moderator_notes, created_at, updated_at
		FROM forum_responses
		WHERE id = $1
	`

	resp := &models.Response{}
	err := r.db.QueryRowContext(ctx, query, responseID).Scan(
		&resp.ID,
		&resp.QueryID,
		&resp.ExpertID,
		&resp.Response,
		&resp.Status,
		&resp.ModeratedBy,
		&resp.ModeratedAt,
		&resp.ModeratorNotes,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// ListResponsesForQuery retrieves a query's responses, oldest first.
// When approvedOnly is set, only approved responses are returned; that is the
// view members get. Staff see every status.
func (r *ForumRepository) ListResponsesForQuery(ctx context.Context, queryID string, approvedOnly bool) ([]models.Response, error) {
	query := `
		SELECT r.id, r.query_id, r.expert_id, r.response, r.status, r.moderated_by,
		       r.moderated_at, r.moderator_notes, r.created_at, r.updated_at, p.full_name
		FROM forum_responses r
		LEFT JOIN profiles p ON p.user_id = r.expert_id
		WHERE r.query_id = $1
	`
	args := []interface{}{queryID}
	if approvedOnly {
		query += ` AND r.status = $2`
		args = append(args, models.ResponseStatusApproved)
	}
	query += ` ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]models.Response, 0)
	for rows.Next() {
		resp := models.Response{}
		err := rows.Scan(
			&resp.ID,
			&resp.QueryID,
			&resp.ExpertID,
			&resp.Response,
			&resp.Status,
			&resp.ModeratedBy,
			&resp.ModeratedAt,
			&resp.ModeratorNotes,
			&resp.CreatedAt,
			&resp.UpdatedAt,
			&resp.ExpertName,
		)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return responses, rows.Err()
}

// ListPendingResponses retrieves the moderation queue: responses still in the
// responded state, joined with their query subject and expert name.
func (r *ForumRepository) ListPendingResponses(ctx context.Context, limit, offset int) ([]models.Response, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM forum_responses WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, models.ResponseStatusResponded).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT r.id, r.query_id, r.expert_id, r.response, r.status, r.moderated_by,
		       r.moderated_at, r.moderator_notes, r.created_at, r.updated_at, p.full_name
		FROM forum_responses r
		LEFT JOIN profiles p ON p.user_id = r.expert_id
		WHERE r.status = $1
		ORDER BY r.created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.ResponseStatusResponded, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	responses := make([]models.Response, 0)
	for rows.Next() {
		resp := models.Response{}
		err := rows.Scan(
			&resp.ID,
			&resp.QueryID,
			&resp.ExpertID,
			&resp.Response,
			&resp.Status,
			&resp.ModeratedBy,
			&resp.ModeratedAt,
			&resp.ModeratorNotes,
			&resp.CreatedAt,
			&resp.UpdatedAt,
			&resp.ExpertName,
		)
		if err != nil {
			return nil, 0, err
		}
		responses = append(responses, resp)
	}

	return responses, total, rows.Err()
}

// ApproveResponse marks a pending response approved and moves its query to
// approved in one transaction. Both writes succeed or neither does.
// Returns ErrResponseNotPending when the response is missing or already moderated.
func (r *ForumRepository) ApproveResponse(ctx context.Context, responseID, moderatorID string, notes *string) error {
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var queryID string
	err = tx.QueryRowContext(ctx, `
		UPDATE forum_responses
		SET status = $2, moderated_by = $3, moderated_at = $4, moderator_notes = $5, updated_at = $4
		WHERE id = $1 AND status = $6
		RETURNING query_id
	`, responseID, models.ResponseStatusApproved, moderatorID, now, notes, models.ResponseStatusResponded).Scan(&queryID)
	if err == sql.ErrNoRows {
		return ErrResponseNotPending
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE forum_queries
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, queryID, models.QueryStatusApproved, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RejectResponse marks a pending response rejected with the moderator's notes.
// The query keeps its current status so the expert can respond again.
// Returns ErrResponseNotPending when the response is missing or already moderated.
func (r *ForumRepository) RejectResponse(ctx context.Context, responseID, moderatorID, notes string) error {
	now := time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE forum_responses
		SET status = $2, moderated_by = $3, moderated_at = $4, moderator_notes = $5, updated_at = $4
		WHERE id = $1 AND status = $6
	`, responseID, models.ResponseStatusRejected, moderatorID, now, notes, models.ResponseStatusResponded)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrResponseNotPending
	}

	return nil
}

// EscalateQuery increments the escalation counter and moves the query to the
// escalated state.
func (r *ForumRepository) EscalateQuery(ctx context.Context, queryID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE forum_queries
		SET status = $2, escalation_count = escalation_count + 1, updated_at = $3
		WHERE id = $1
	`, queryID, models.QueryStatusEscalated, time.Now())
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
