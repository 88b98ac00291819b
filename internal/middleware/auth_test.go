package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var authUserCols = []string{"id", "email", "password_hash", "is_active", "created_at", "updated_at"}

var authRoleCols = []string{"user_id", "role", "assigned_by", "assigned_at"}

func newAuthUserRepo(t *testing.T) (*repositories.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewUserRepository(db), mock
}

func generateTestJWT(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

// newAuthRouter builds a router with AuthMiddleware. The final handler echoes
// the context identity so tests can assert what the middleware populated.
func newAuthRouter(userRepo *repositories.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(nil, userRepo))
	r.GET("/", func(c *gin.Context) {
		role, _ := c.Get("role")
		scopes, _ := c.Get("scopes")
		c.JSON(http.StatusOK, gin.H{"role": role, "scopes": scopes})
	})
	return r
}

func newOptionalAuthRouter(userRepo *repositories.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(OptionalAuthMiddleware(nil, userRepo))
	r.GET("/", func(c *gin.Context) {
		_, authenticated := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
	})
	return r
}

func doAuthRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func expectUserLookup(mock sqlmock.Sqlmock, userID string, active bool) {
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(authUserCols).
			AddRow(userID, "test@example.com", "$2a$12$hash", active, time.Now(), time.Now()))
}

func expectRoleLookup(mock sqlmock.Sqlmock, userID, role string) {
	mock.ExpectQuery("SELECT.*FROM user_roles.*WHERE user_id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(authRoleCols).
			AddRow(userID, role, nil, time.Now()))
}

// ---------------------------------------------------------------------------
// AuthMiddleware — early-exit paths (no repository calls needed)
// ---------------------------------------------------------------------------

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	if w := doAuthRequest(newAuthRouter(nil), ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_NonBearerPrefix(t *testing.T) {
	if w := doAuthRequest(newAuthRouter(nil), "Basic dXNlcjpwYXNz"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_EmptyToken(t *testing.T) {
	// "Bearer " with only whitespace → trimmed to empty → 401
	if w := doAuthRequest(newAuthRouter(nil), "Bearer   "); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	if w := doAuthRequest(newAuthRouter(nil), "Bearer not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// AuthMiddleware — JWT paths
// ---------------------------------------------------------------------------

func TestAuthMiddleware_ValidJWT(t *testing.T) {
	userRepo, mock := newAuthUserRepo(t)
	expectUserLookup(mock, "user-1", true)
	expectRoleLookup(mock, "user-1", "expert_panellist")

	token := generateTestJWT(t, "user-1")
	w := doAuthRequest(newAuthRouter(userRepo), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.Contains(body, "expert_panellist") {
		t.Errorf("body = %s, want role expert_panellist", body)
	}
	if body := w.Body.String(); !strings.Contains(body, "forum:respond") {
		t.Errorf("body = %s, want expert scopes in context", body)
	}
}

func TestAuthMiddleware_UserNotFound(t *testing.T) {
	userRepo, mock := newAuthUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(authUserCols))

	token := generateTestJWT(t, "ghost")
	if w := doAuthRequest(newAuthRouter(userRepo), "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_InactiveUser(t *testing.T) {
	userRepo, mock := newAuthUserRepo(t)
	expectUserLookup(mock, "user-1", false)

	token := generateTestJWT(t, "user-1")
	if w := doAuthRequest(newAuthRouter(userRepo), "Bearer "+token); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for deactivated account", w.Code)
	}
}

func TestAuthMiddleware_NoRoleRowDefaultsToMember(t *testing.T) {
	userRepo, mock := newAuthUserRepo(t)
	expectUserLookup(mock, "user-1", true)
	mock.ExpectQuery("SELECT.*FROM user_roles.*WHERE user_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(authRoleCols))

	token := generateTestJWT(t, "user-1")
	w := doAuthRequest(newAuthRouter(userRepo), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "registered_member") {
		t.Errorf("body = %s, want default role registered_member", body)
	}
}

// ---------------------------------------------------------------------------
// OptionalAuthMiddleware
// ---------------------------------------------------------------------------

func TestOptionalAuthMiddleware_MissingHeader(t *testing.T) {
	// No auth header → passes through with 200
	w := doAuthRequest(newOptionalAuthRouter(nil), "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (optional auth passes through)", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"authenticated":false`) {
		t.Errorf("body = %s, want authenticated false", w.Body.String())
	}
}

func TestOptionalAuthMiddleware_NonBearerPrefix(t *testing.T) {
	if w := doAuthRequest(newOptionalAuthRouter(nil), "Basic dXNlcjpwYXNz"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (optional auth passes through)", w.Code)
	}
}

func TestOptionalAuthMiddleware_InvalidToken(t *testing.T) {
	// Garbage token → passes through unauthenticated rather than aborting
	w := doAuthRequest(newOptionalAuthRouter(nil), "Bearer not-a-jwt")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"authenticated":false`) {
		t.Errorf("body = %s, want authenticated false", w.Body.String())
	}
}

func TestOptionalAuthMiddleware_ValidJWTAttachesIdentity(t *testing.T) {
	userRepo, mock := newAuthUserRepo(t)
	expectUserLookup(mock, "user-1", true)
	expectRoleLookup(mock, "user-1", "registered_member")

	token := generateTestJWT(t, "user-1")
	w := doAuthRequest(newOptionalAuthRouter(userRepo), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"authenticated":true`) {
		t.Errorf("body = %s, want authenticated true", w.Body.String())
	}
}

