// roles.go implements role assignment. Role mutation is the most privileged
// operation in the portal and is reserved to roles:manage (super_admin).
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/db/models"
)

// AssignRoleRequest carries the role tag to assign
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// @Summary      List roles
// @Description  Returns the closed set of assignable roles with their permission sets. Requires roles:manage scope.
// @Tags         Roles
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "roles: map[role][]scope"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /v1/admin/roles [get]
// ListRolesHandler returns the assignable roles and their scope sets
// GET /v1/admin/roles
func (h *UserHandlers) ListRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := make(map[string][]string, len(auth.AllRoles()))
		for _, role := range auth.AllRoles() {
			roles[string(role)] = auth.ScopesForRole(role)
		}

		c.JSON(http.StatusOK, gin.H{
			"roles": roles,
		})
	}
}

// @Summary      Assign role
// @Description  Assign one of the portal roles to a user. The previous role is replaced; scope changes take effect on the user's next request. Requires roles:manage scope.
// @Tags         Roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "User ID"
// @Param        body  body  AssignRoleRequest  true  "Role assignment"
// @Success      200  {object}  map[string]interface{}  "user_id, role"
// @Failure      400  {object}  map[string]interface{}  "Invalid role"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/admin/users/{id}/role [put]
// AssignRoleHandler assigns a role to a user
// PUT /v1/admin/users/:id/role
func (h *UserHandlers) AssignRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		var req AssignRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if err := auth.ValidateRole(req.Role); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve user",
			})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		assignedBy := c.GetString("user_id")
		if err := h.userRepo.AssignRole(c.Request.Context(), userID, req.Role, assignedBy); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to assign role",
			})
			return
		}

		h.notifyRoleChange(c.Request.Context(), userID, req.Role)

		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"role":    req.Role,
		})
	}
}

// notifyRoleChange tells the affected user their role was changed. Failures
// are logged, never surfaced to the caller.
func (h *UserHandlers) notifyRoleChange(ctx context.Context, userID, role string) {
	if h.notificationRepo == nil {
		return
	}
	n := &models.Notification{
		UserID:  userID,
		Type:    models.NotificationRoleChanged,
		Title:   "Your portal role has changed",
		Message: "Your account role is now " + role + ".",
	}
	if err := h.notificationRepo.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create role change notification", "user_id", userID, "error", err)
	}
}
