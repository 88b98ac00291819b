package forum

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// ---------------------------------------------------------------------------
// ListPendingResponsesHandler
// ---------------------------------------------------------------------------

func TestListPendingResponsesHandler_Success(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectQuery("SELECT COUNT").WithArgs("responded").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT").WithArgs("responded", 20, 0).
		WillReturnRows(sqlmock.NewRows(responseListSQLCols).
			AddRow("resp-1", "query-1", "expert-1", "Draft answer",
				"responded", nil, nil, nil, time.Now(), time.Now(), "Eve Expert"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/moderation/responses", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	if resp["responses"] == nil {
		t.Error("response missing 'responses' key")
	}
	if resp["pagination"] == nil {
		t.Error("response missing 'pagination' key")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListPendingResponsesHandler_DBError(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/moderation/responses", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---------------------------------------------------------------------------
// ApproveResponseHandler
// ---------------------------------------------------------------------------

func approvedResponseRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(responseSQLCols).
		AddRow("resp-1", "query-1", "expert-1", "The gain is disposal proceeds less base cost.",
			"approved", "mod-1", now, nil, now, now)
}

func TestApproveResponseHandler_Success(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE forum_responses").
		WillReturnRows(sqlmock.NewRows([]string{"query_id"}).AddRow("query-1"))
	mock.ExpectExec("UPDATE forum_queries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Re-fetch for the response body, then the owner notification
	mock.ExpectQuery("SELECT").WithArgs("resp-1").
		WillReturnRows(approvedResponseRow())
	mock.ExpectQuery("SELECT").WithArgs("query-1").
		WillReturnRows(sampleQueryRow("member-1"))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/approve", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	response, ok := resp["response"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing 'response' key")
	}
	if response["status"] != "approved" {
		t.Errorf("status = %v, want approved", response["status"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestApproveResponseHandler_AlreadyModerated(t *testing.T) {
	// The RETURNING clause matches no rows when the response is not pending
	mock, r := newModeratorRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE forum_responses").
		WillReturnRows(sqlmock.NewRows([]string{"query_id"}))
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/approve", nil))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestApproveResponseHandler_NotificationFailureStillApproves(t *testing.T) {
	// The decision is committed before the notification write; a failed
	// notification must not fail the request
	mock, r := newModeratorRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE forum_responses").
		WillReturnRows(sqlmock.NewRows([]string{"query_id"}).AddRow("query-1"))
	mock.ExpectExec("UPDATE forum_queries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT").WithArgs("resp-1").
		WillReturnRows(approvedResponseRow())
	mock.ExpectQuery("SELECT").WithArgs("query-1").
		WillReturnRows(sampleQueryRow("member-1"))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/approve", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestApproveResponseHandler_DBError(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE forum_responses").
		WillReturnError(errDB)
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/approve", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---------------------------------------------------------------------------
// RejectResponseHandler
// ---------------------------------------------------------------------------

func TestRejectResponseHandler_Success(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectExec("UPDATE forum_responses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Re-fetch for the response body, then the expert notification
	now := time.Now()
	notes := "Cite the relevant section of the Act."
	mock.ExpectQuery("SELECT").WithArgs("resp-1").
		WillReturnRows(sqlmock.NewRows(responseSQLCols).
			AddRow("resp-1", "query-1", "expert-1", "Draft answer",
				"rejected", "mod-1", now, notes, now, now))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/reject", jsonBody(map[string]string{
		"notes": notes,
	})))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	response, ok := resp["response"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing 'response' key")
	}
	if response["status"] != "rejected" {
		t.Errorf("status = %v, want rejected", response["status"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRejectResponseHandler_NotesRequired(t *testing.T) {
	// Whitespace-only notes are rejected before the database is touched
	_, r := newModeratorRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/reject", jsonBody(map[string]string{
		"notes": "   ",
	})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRejectResponseHandler_AlreadyModerated(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectExec("UPDATE forum_responses").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/reject", jsonBody(map[string]string{
		"notes": "Too vague.",
	})))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestRejectResponseHandler_DBError(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectExec("UPDATE forum_responses").
		WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/moderation/responses/resp-1/reject", jsonBody(map[string]string{
		"notes": "Too vague.",
	})))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---------------------------------------------------------------------------
// EscalateQueryHandler
// ---------------------------------------------------------------------------

func TestEscalateQueryHandler_Success(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectExec("UPDATE forum_queries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT").WithArgs("query-1").
		WillReturnRows(sqlmock.NewRows(querySQLCols).
			AddRow("query-1", "member-1", "capital_gains", "CGT on share disposal",
				"How is the gain computed?", "escalated",
				nil, nil, 1, time.Now(), time.Now(), "Alice Member"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/queries/query-1/escalate", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	query, ok := resp["query"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing 'query' key")
	}
	if query["status"] != "escalated" {
		t.Errorf("status = %v, want escalated", query["status"])
	}
	if query["escalation_count"] != float64(1) {
		t.Errorf("escalation_count = %v, want 1", query["escalation_count"])
	}
}

func TestEscalateQueryHandler_NotFound(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectExec("UPDATE forum_queries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/queries/missing/escalate", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestEscalateQueryHandler_DBError(t *testing.T) {
	mock, r := newModeratorRouter(t)

	mock.ExpectExec("UPDATE forum_queries").
		WillReturnError(errDB)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/queries/query-1/escalate", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
