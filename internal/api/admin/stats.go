package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/db/repositories"
)

// StatsHandlers serves the aggregate dashboards
type StatsHandlers struct {
	statsRepo *repositories.StatsRepository
}

// NewStatsHandlers creates a new StatsHandlers instance
func NewStatsHandlers(db *sql.DB) *StatsHandlers {
	return &StatsHandlers{
		statsRepo: repositories.NewStatsRepository(db),
	}
}

// @Summary      Dashboard statistics
// @Description  Portal-wide counters for the staff dashboard: users, queries, moderation backlog, published content, upcoming events, and open tickets. Requires users:read scope.
// @Tags         Stats
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  repositories.DashboardStats
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/admin/stats [get]
// DashboardStatsHandler returns portal-wide aggregate counters
// GET /v1/admin/stats
func (h *StatsHandlers) DashboardStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.statsRepo.GetDashboardStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve dashboard statistics",
			})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// @Summary      Member statistics
// @Description  The authenticated member's own activity counters: queries submitted, responses received, event registrations, open tickets.
// @Tags         Stats
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "stats: map[string]int"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/stats [get]
// MemberStatsHandler returns the caller's own activity counters
// GET /v1/stats
func (h *StatsHandlers) MemberStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		stats, err := h.statsRepo.GetMemberStats(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve member statistics",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stats": stats,
		})
	}
}
