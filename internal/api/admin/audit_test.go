package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// auditSQLCols are the columns returned by audit log SELECT queries.
var auditSQLCols = []string{
	"id", "user_id", "action", "resource_type", "resource_id",
	"metadata", "ip_address", "created_at",
}

func sampleAuditRow() *sqlmock.Rows {
	return sqlmock.NewRows(auditSQLCols).
		AddRow("log-1", "expert-1", "POST /queries/query-1/responses", "response",
			"resp-1", []byte(`{"status":201}`), "203.0.113.9", time.Now())
}

// ---------------------------------------------------------------------------
// ListAuditLogsHandler
// ---------------------------------------------------------------------------

func TestListAuditLogsHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, user_id").
		WithArgs(20, 0).
		WillReturnRows(sampleAuditRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/audit-logs", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := getJSON(w)
	logs := body["logs"].([]interface{})
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	entry := logs[0].(map[string]interface{})
	if entry["action"] != "POST /queries/query-1/responses" {
		t.Errorf("action = %v", entry["action"])
	}
	metadata := entry["metadata"].(map[string]interface{})
	if metadata["status"] != float64(201) {
		t.Errorf("metadata.status = %v, want 201", metadata["status"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListAuditLogsHandler_UserFilter(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("expert-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("expert-1", 20, 0).
		WillReturnRows(sampleAuditRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/audit-logs?user_id=expert-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListAuditLogsHandler_DateRangeFilter(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT id, user_id").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 20, 0).
		WillReturnRows(sqlmock.NewRows(auditSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/admin/audit-logs?start_date=2026-08-01T00:00:00Z&end_date=2026-08-31T23:59:59Z", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListAuditLogsHandler_InvalidStartDate(t *testing.T) {
	_, r := newAdminRouter(t, "admin-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/audit-logs?start_date=yesterday", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if msg := getJSON(w)["error"]; msg != "Invalid start_date, expected RFC3339" {
		t.Errorf("error = %v", msg)
	}
}

func TestListAuditLogsHandler_DBError(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/audit-logs", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GetAuditLogHandler
// ---------------------------------------------------------------------------

func TestGetAuditLogHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("log-1").
		WillReturnRows(sampleAuditRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/audit-logs/log-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	entry := getJSON(w)["log"].(map[string]interface{})
	if entry["id"] != "log-1" {
		t.Errorf("id = %v, want log-1", entry["id"])
	}
	if entry["ip_address"] != "203.0.113.9" {
		t.Errorf("ip_address = %v", entry["ip_address"])
	}
}

func TestGetAuditLogHandler_NotFound(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(auditSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/audit-logs/ghost", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetAuditLogHandler_DBError(t *testing.T) {
	mock, r := newAdminRouter(t, "admin-1")

	mock.ExpectQuery("SELECT id, user_id").WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/audit-logs/ghost", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
