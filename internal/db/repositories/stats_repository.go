package repositories

import (
	"context"
	"database/sql"

	"github.com/member-portal/member-portal/internal/db/models"
)

// DashboardStats is the aggregate snapshot served on the admin dashboard
type DashboardStats struct {
	TotalUsers        int            `json:"total_users"`
	ActiveUsers       int            `json:"active_users"`
	TotalQueries      int            `json:"total_queries"`
	PendingModeration int            `json:"pending_moderation"`
	EscalatedQueries  int            `json:"escalated_queries"`
	PublishedContent  int            `json:"published_content"`
	UpcomingEvents    int            `json:"upcoming_events"`
	OpenTickets       int            `json:"open_tickets"`
	QueriesByCategory map[string]int `json:"queries_by_category"`
	QueriesByStatus   map[string]int `json:"queries_by_status"`
}

// StatsRepository handles dashboard aggregate queries
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetDashboardStats gathers the dashboard counters in one pass
func (r *StatsRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		QueriesByCategory: make(map[string]int),
		QueriesByStatus:   make(map[string]int),
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM forum_queries),
			(SELECT COUNT(*) FROM forum_responses WHERE status = 'responded'),
			(SELECT COUNT(*) FROM forum_queries WHERE status = 'escalated'),
			(SELECT COUNT(*) FROM publications WHERE status = 'published') +
			(SELECT COUNT(*) FROM events WHERE status = 'published') +
			(SELECT COUNT(*) FROM announcements WHERE status = 'published'),
			(SELECT COUNT(*) FROM events WHERE status = 'published' AND start_date > now()),
			(SELECT COUNT(*) FROM helpdesk_tickets WHERE status IN ('open', 'in_progress'))
	`

	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.TotalQueries,
		&stats.PendingModeration,
		&stats.EscalatedQueries,
		&stats.PublishedContent,
		&stats.UpcomingEvents,
		&stats.OpenTickets,
	)
	if err != nil {
		return nil, err
	}

	byCategory, err := r.countGrouped(ctx, `SELECT category, COUNT(*) FROM forum_queries GROUP BY category`)
	if err != nil {
		return nil, err
	}
	stats.QueriesByCategory = byCategory

	byStatus, err := r.countGrouped(ctx, `SELECT status, COUNT(*) FROM forum_queries GROUP BY status`)
	if err != nil {
		return nil, err
	}
	stats.QueriesByStatus = byStatus

	return stats, nil
}

// GetMemberStats gathers the counters shown on a member's own dashboard
func (r *StatsRepository) GetMemberStats(ctx context.Context, userID string) (map[string]int, error) {
	stats := make(map[string]int)

	query := `
		SELECT
			(SELECT COUNT(*) FROM forum_queries WHERE member_id = $1),
			(SELECT COUNT(*) FROM forum_queries WHERE member_id = $1 AND status = $2),
			(SELECT COUNT(*) FROM event_registrations WHERE user_id = $1),
			(SELECT COUNT(*) FROM helpdesk_tickets WHERE user_id = $1 AND status IN ('open', 'in_progress')),
			(SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE)
	`

	var queries, approved, registrations, openTickets, unread int
	err := r.db.QueryRowContext(ctx, query, userID, models.QueryStatusApproved).Scan(
		&queries,
		&approved,
		&registrations,
		&openTickets,
		&unread,
	)
	if err != nil {
		return nil, err
	}

	stats["queries_submitted"] = queries
	stats["queries_answered"] = approved
	stats["event_registrations"] = registrations
	stats["open_tickets"] = openTickets
	stats["unread_notifications"] = unread

	return stats, nil
}

func (r *StatsRepository) countGrouped(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}

	return counts, rows.Err()
}
