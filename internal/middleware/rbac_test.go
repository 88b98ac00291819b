package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/auth"
)

// newScopeRouter builds a gin engine where:
//  1. A setup handler sets c["scopes"] to userScopes (if non-nil)
//  2. The provided middleware runs
//  3. A final handler returns 200 {"ok":true} if not aborted
func newScopeRouter(mid gin.HandlerFunc, userScopes interface{}) *gin.Engine {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		if userScopes != nil {
			c.Set("scopes", userScopes)
		}
	}, mid, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func do(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	return w
}

func isAbortedWith403(w *httptest.ResponseRecorder) bool {
	return w.Code == http.StatusForbidden
}

func isOK(w *httptest.ResponseRecorder) bool {
	return w.Code == http.StatusOK
}

// ---------------------------------------------------------------------------
// RequireScope
// ---------------------------------------------------------------------------

func TestRequireScope(t *testing.T) {
	t.Run("no scopes in context returns 403", func(t *testing.T) {
		w := do(newScopeRouter(RequireScope(auth.ScopeForumModerate), nil))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("wrong type in context returns 403", func(t *testing.T) {
		// Put a non-[]string value so the type assertion fails
		w := do(newScopeRouter(RequireScope(auth.ScopeForumModerate), "not-a-slice"))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("missing scope returns 403", func(t *testing.T) {
		w := do(newScopeRouter(RequireScope(auth.ScopeForumModerate), []string{"forum:read", "forum:write"}))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("exact scope match allows request", func(t *testing.T) {
		w := do(newScopeRouter(RequireScope(auth.ScopeForumModerate), []string{"forum:moderate"}))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("admin scope satisfies everything", func(t *testing.T) {
		w := do(newScopeRouter(RequireScope(auth.ScopeContentPublish), []string{"admin"}))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("write scope implies read", func(t *testing.T) {
		w := do(newScopeRouter(RequireScope(auth.ScopeContentRead), []string{"content:write"}))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("403 body contains error field", func(t *testing.T) {
		w := do(newScopeRouter(RequireScope(auth.ScopeForumModerate), []string{}))
		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("body parse error: %v", err)
		}
		if _, ok := body["error"]; !ok {
			t.Error("403 response body should have 'error' field")
		}
	})
}

// ---------------------------------------------------------------------------
// RequireAnyScope
// ---------------------------------------------------------------------------

func TestRequireAnyScope(t *testing.T) {
	t.Run("no scopes in context returns 403", func(t *testing.T) {
		w := do(newScopeRouter(RequireAnyScope(auth.ScopeForumModerate, auth.ScopeAdmin), nil))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("wrong type in context returns 403", func(t *testing.T) {
		w := do(newScopeRouter(RequireAnyScope(auth.ScopeForumModerate), 42))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("no matching scope returns 403", func(t *testing.T) {
		w := do(newScopeRouter(RequireAnyScope(auth.ScopeForumModerate, auth.ScopeTicketsManage), []string{"forum:read"}))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("first scope matches allows request", func(t *testing.T) {
		w := do(newScopeRouter(RequireAnyScope(auth.ScopeForumModerate, auth.ScopeTicketsManage), []string{"forum:moderate"}))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("second scope matches allows request", func(t *testing.T) {
		w := do(newScopeRouter(RequireAnyScope(auth.ScopeForumModerate, auth.ScopeTicketsManage), []string{"tickets:manage"}))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// RequireAllScopes
// ---------------------------------------------------------------------------

func TestRequireAllScopes(t *testing.T) {
	t.Run("no scopes in context returns 403", func(t *testing.T) {
		w := do(newScopeRouter(RequireAllScopes(auth.ScopeForumRead, auth.ScopeForumModerate), nil))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("missing one of two scopes returns 403", func(t *testing.T) {
		w := do(newScopeRouter(RequireAllScopes(auth.ScopeForumRead, auth.ScopeForumModerate), []string{"forum:read"}))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("all scopes present allows request", func(t *testing.T) {
		scopes := []string{"forum:read", "forum:moderate"}
		w := do(newScopeRouter(RequireAllScopes(auth.ScopeForumRead, auth.ScopeForumModerate), scopes))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("empty required scopes list allows request", func(t *testing.T) {
		w := do(newScopeRouter(RequireAllScopes(), []string{}))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// RequireRole
// ---------------------------------------------------------------------------

func newRoleRouter(mid gin.HandlerFunc, role interface{}) *gin.Engine {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		if role != nil {
			c.Set("role", role)
		}
	}, mid, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireRole(t *testing.T) {
	t.Run("no role in context returns 403", func(t *testing.T) {
		w := do(newRoleRouter(RequireRole(auth.RoleSuperAdmin), nil))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("wrong type in context returns 403", func(t *testing.T) {
		w := do(newRoleRouter(RequireRole(auth.RoleSuperAdmin), 7))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("role not in list returns 403", func(t *testing.T) {
		w := do(newRoleRouter(RequireRole(auth.RoleSuperAdmin), "registered_member"))
		if !isAbortedWith403(w) {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("matching role allows request", func(t *testing.T) {
		w := do(newRoleRouter(RequireRole(auth.RoleSuperAdmin), "super_admin"))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("any of several roles allows request", func(t *testing.T) {
		w := do(newRoleRouter(RequireRole(auth.RoleSuperAdmin, auth.RoleCMSAdmin), "cms_admin"))
		if !isOK(w) {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
