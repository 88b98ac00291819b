// Package session implements the email+password authentication endpoints:
// signup, login, token refresh, and the current-user view.
package session

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/config"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
)

// AuthHandlers handles signup, login, and session endpoints
type AuthHandlers struct {
	cfg         *config.Config
	userRepo    *repositories.UserRepository
	profileRepo *repositories.ProfileRepository
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, db *sql.DB) *AuthHandlers {
	return &AuthHandlers{
		cfg:         cfg,
		userRepo:    repositories.NewUserRepository(db),
		profileRepo: repositories.NewProfileRepository(db),
	}
}

// SignupRequest represents the member self-registration request
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

// @Summary      Member signup
// @Description  Register a new member account. New accounts always receive the registered_member role.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  SignupRequest  true  "Signup request"
// @Success      201  {object}  map[string]interface{}  "token, user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or weak password"
// @Failure      403  {object}  map[string]interface{}  "Signup disabled"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /v1/auth/signup [post]
// SignupHandler registers a new member account
// POST /v1/auth/signup
func (h *AuthHandlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.cfg.Auth.AllowSignup {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Signup is disabled",
			})
			return
		}

		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if err := auth.ValidatePassword(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		existing, err := h.userRepo.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check existing account",
			})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": "An account with this email already exists",
			})
			return
		}

		hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create account",
			})
			return
		}

		user := &models.User{
			Email:        req.Email,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := h.userRepo.CreateUser(c.Request.Context(), user, string(auth.DefaultRole), req.FullName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create account",
			})
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, h.cfg.Auth.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to issue session token",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Login
// @Description  Authenticate with email and password and receive a JWT session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Login request"
// @Success      200  {object}  map[string]interface{}  "token, user, role"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Invalid email or password"
// @Failure      403  {object}  map[string]interface{}  "Account deactivated"
// @Router       /v1/auth/login [post]
// LoginHandler authenticates a user and issues a session token
// POST /v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		user, err := h.userRepo.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to look up account",
			})
			return
		}

		// Same response for unknown email and wrong password; no account probing
		if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid email or password",
			})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Account is deactivated",
			})
			return
		}

		role, err := h.userRepo.GetUserRole(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve role",
			})
			return
		}
		roleTag := string(auth.DefaultRole)
		if role != nil {
			roleTag = role.Role
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, h.cfg.Auth.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to issue session token",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
			"role":  roleTag,
		})
	}
}

// @Summary      Current user
// @Description  Returns the authenticated user with their role, permissions, and profile.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user, role, scopes, profile"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /v1/auth/me [get]
// MeHandler returns the authenticated user's account, role, and profile
// GET /v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		user := userVal.(*models.User)

		role, _ := c.Get("role")
		scopes, _ := c.Get("scopes")

		profile, err := h.profileRepo.GetProfile(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load profile",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":    user,
			"role":    role,
			"scopes":  scopes,
			"profile": profile,
		})
	}
}

// @Summary      Refresh token
// @Description  Issues a fresh JWT for the authenticated user.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "token"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /v1/auth/refresh [post]
// RefreshHandler issues a new session token for the authenticated user
// POST /v1/auth/refresh
func (h *AuthHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		user := userVal.(*models.User)

		token, err := auth.GenerateJWT(user.ID, user.Email, h.cfg.Auth.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to issue session token",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
		})
	}
}

// @Summary      Logout
// @Description  Ends the session. Tokens are stateless, so the server only acknowledges; clients discard the token.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "logged_out"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /v1/auth/logout [post]
// LogoutHandler acknowledges the end of a session
// POST /v1/auth/logout
func (h *AuthHandlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"logged_out": true,
		})
	}
}
