package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// ---------------------------------------------------------------------------
// ListRolesHandler
// ---------------------------------------------------------------------------

func TestListRolesHandler_ReturnsAllRoles(t *testing.T) {
	_, r := newAdminRouter(t, "admin-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/roles", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	roles := getJSON(w)["roles"].(map[string]interface{})
	if len(roles) != 7 {
		t.Errorf("len(roles) = %d, want 7", len(roles))
	}
	super := roles["super_admin"].([]interface{})
	if len(super) != 1 || super[0] != "admin" {
		t.Errorf("super_admin scopes = %v, want [admin]", super)
	}
	if _, ok := roles["registered_member"]; !ok {
		t.Error("registered_member missing from role listing")
	}
}

// ---------------------------------------------------------------------------
// AssignRoleHandler
// ---------------------------------------------------------------------------

func TestAssignRoleHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT id, email").
		WithArgs("user-1").
		WillReturnRows(sampleUserRow(true))
	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs("user-1", "cms_editor", "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/admin/users/user-1/role",
		jsonBody(map[string]string{"role": "cms_editor"})))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := getJSON(w)
	if body["user_id"] != "user-1" {
		t.Errorf("user_id = %v, want user-1", body["user_id"])
	}
	if body["role"] != "cms_editor" {
		t.Errorf("role = %v, want cms_editor", body["role"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAssignRoleHandler_NotificationFailureStillAssigns(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT id, email").
		WithArgs("user-1").
		WillReturnRows(sampleUserRow(true))
	mock.ExpectExec("INSERT INTO user_roles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/admin/users/user-1/role",
		jsonBody(map[string]string{"role": "cms_editor"})))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAssignRoleHandler_InvalidRole(t *testing.T) {
	_, r := newAdminRouter(t, "admin-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/admin/users/user-1/role",
		jsonBody(map[string]string{"role": "overlord"})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAssignRoleHandler_UserNotFound(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT id, email").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/admin/users/ghost/role",
		jsonBody(map[string]string{"role": "cms_editor"})))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAssignRoleHandler_DBError(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT id, email").
		WithArgs("user-1").
		WillReturnRows(sampleUserRow(true))
	mock.ExpectExec("INSERT INTO user_roles").WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/admin/users/user-1/role",
		jsonBody(map[string]string{"role": "cms_editor"})))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
