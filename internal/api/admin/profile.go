// profile.go implements the self-service member profile endpoints. These live
// alongside the admin user handlers because they share the profile repository,
// but they operate only on the authenticated user's own row.
package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
)

// ProfileHandlers handles the member's own profile
type ProfileHandlers struct {
	profileRepo *repositories.ProfileRepository
}

// NewProfileHandlers creates a new ProfileHandlers instance
func NewProfileHandlers(db *sql.DB) *ProfileHandlers {
	return &ProfileHandlers{
		profileRepo: repositories.NewProfileRepository(db),
	}
}

// ProfileRequest carries the editable profile fields
type ProfileRequest struct {
	FullName         string   `json:"full_name" binding:"required"`
	Phone            *string  `json:"phone"`
	MembershipNumber *string  `json:"membership_number"`
	AvatarURL        *string  `json:"avatar_url"`
	Bio              *string  `json:"bio"`
	ExpertiseAreas   []string `json:"expertise_areas"`
}

// @Summary      Get own profile
// @Description  Get the authenticated user's profile.
// @Tags         Profile
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "profile: models.Profile"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Profile not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/profile [get]
// GetProfileHandler returns the caller's profile
// GET /v1/profile
func (h *ProfileHandlers) GetProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		profile, err := h.profileRepo.GetProfile(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve profile",
			})
			return
		}
		if profile == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"profile": profile,
		})
	}
}

// @Summary      Update own profile
// @Description  Create or replace the authenticated user's profile. All editable fields are replaced; omitted optional fields are cleared.
// @Tags         Profile
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  ProfileRequest  true  "Profile fields"
// @Success      200  {object}  map[string]interface{}  "profile: models.Profile"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/profile [put]
// UpdateProfileHandler creates or replaces the caller's profile
// PUT /v1/profile
func (h *ProfileHandlers) UpdateProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		profile := &models.Profile{
			UserID:           userID,
			FullName:         req.FullName,
			Phone:            req.Phone,
			MembershipNumber: req.MembershipNumber,
			AvatarURL:        req.AvatarURL,
			Bio:              req.Bio,
			ExpertiseAreas:   req.ExpertiseAreas,
		}
		if err := h.profileRepo.UpsertProfile(c.Request.Context(), profile); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update profile",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"profile": profile,
		})
	}
}
