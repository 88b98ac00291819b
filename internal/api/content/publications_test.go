package content

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Test setup helpers
// ---------------------------------------------------------------------------

// publicationSQLCols are the columns returned by publication SELECT queries.
var publicationSQLCols = []string{
	"id", "title", "description", "content", "category", "file_url", "thumbnail_url",
	"committee", "status", "published_at", "created_by", "created_at", "updated_at",
}

func samplePublicationRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows(publicationSQLCols).
		AddRow("pub-1", "Budget commentary", nil, nil, nil, nil, nil,
			"DTC", status, nil, "editor-1", time.Now(), time.Now())
}

// newContentRouter creates a gin router with every content route registered
// and the given identity injected into the request context.
func newContentRouter(t *testing.T, userID string, scopes []string) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewHandlers(db, sqlx.NewDb(db, "postgres"))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("scopes", scopes)
		c.Next()
	})
	r.GET("/publications", h.ListPublicationsHandler())
	r.GET("/publications/:id", h.GetPublicationHandler())
	r.POST("/publications", h.CreatePublicationHandler())
	r.PUT("/publications/:id", h.UpdatePublicationHandler())
	r.POST("/publications/:id/publish", h.PublishPublicationHandler())
	r.POST("/publications/:id/unpublish", h.UnpublishPublicationHandler())
	r.DELETE("/publications/:id", h.DeletePublicationHandler())
	r.GET("/events", h.ListEventsHandler())
	r.GET("/events/:id", h.GetEventHandler())
	r.POST("/events", h.CreateEventHandler())
	r.PUT("/events/:id", h.UpdateEventHandler())
	r.POST("/events/:id/publish", h.PublishEventHandler())
	r.POST("/events/:id/unpublish", h.UnpublishEventHandler())
	r.DELETE("/events/:id", h.DeleteEventHandler())
	r.POST("/events/:id/register", h.RegisterHandler())
	r.DELETE("/events/:id/register", h.CancelRegistrationHandler())
	r.GET("/events/registrations", h.MyRegistrationsHandler())
	r.GET("/events/:id/registrations", h.ListEventRegistrationsHandler())
	r.GET("/announcements", h.ListAnnouncementsHandler())
	r.GET("/announcements/:id", h.GetAnnouncementHandler())
	r.POST("/announcements", h.CreateAnnouncementHandler())
	r.PUT("/announcements/:id", h.UpdateAnnouncementHandler())
	r.POST("/announcements/:id/publish", h.PublishAnnouncementHandler())
	r.POST("/announcements/:id/unpublish", h.UnpublishAnnouncementHandler())
	r.DELETE("/announcements/:id", h.DeleteAnnouncementHandler())

	return mock, r
}

func newPublicRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	return newContentRouter(t, "", nil)
}

func newEditorRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	return newContentRouter(t, "editor-1", []string{"content:read", "content:write", "content:publish"})
}

func jsonBody(v interface{}) *bytes.Buffer {
	b, _ := json.Marshal(v)
	return bytes.NewBuffer(b)
}

func getJSON(resp *httptest.ResponseRecorder) map[string]interface{} {
	var m map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &m)
	return m
}

// errDB is a sentinel error for DB failures in tests.
var errDB = &dbError{"database error"}

type dbError struct{ msg string }

func (e *dbError) Error() string { return e.msg }

// ---------------------------------------------------------------------------
// ListPublicationsHandler
// ---------------------------------------------------------------------------

func TestListPublicationsHandler_PublicSeesPublishedOnly(t *testing.T) {
	mock, r := newPublicRouter(t)

	mock.ExpectQuery("SELECT COUNT").WithArgs("published").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT").WithArgs("published", 20, 0).
		WillReturnRows(samplePublicationRow("published"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	if resp["publications"] == nil {
		t.Error("response missing 'publications' key")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListPublicationsHandler_EditorSeesFullLifecycle(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT").WithArgs(20, 0).
		WillReturnRows(samplePublicationRow("draft"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListPublicationsHandler_CommitteeFilter(t *testing.T) {
	mock, r := newPublicRouter(t)

	mock.ExpectQuery("SELECT COUNT").WithArgs("published", "DTC").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT").WithArgs("published", "DTC", 20, 0).
		WillReturnRows(sqlmock.NewRows(publicationSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications?committee=DTC", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListPublicationsHandler_InvalidCommittee(t *testing.T) {
	_, r := newPublicRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications?committee=NOPE", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GetPublicationHandler
// ---------------------------------------------------------------------------

func TestGetPublicationHandler_Published(t *testing.T) {
	mock, r := newPublicRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("pub-1").
		WillReturnRows(samplePublicationRow("published"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications/pub-1", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestGetPublicationHandler_DraftHiddenFromPublic(t *testing.T) {
	// Drafts read as absent without content:write
	mock, r := newPublicRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("pub-1").
		WillReturnRows(samplePublicationRow("draft"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications/pub-1", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetPublicationHandler_DraftVisibleToEditor(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("pub-1").
		WillReturnRows(samplePublicationRow("draft"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications/pub-1", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestGetPublicationHandler_NotFound(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(publicationSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/publications/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// CreatePublicationHandler
// ---------------------------------------------------------------------------

func TestCreatePublicationHandler_Success(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectExec("INSERT INTO publications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/publications", jsonBody(map[string]string{
		"title":     "Budget commentary",
		"committee": "DTC",
	})))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	resp := getJSON(w)
	pub, ok := resp["publication"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing 'publication' key")
	}
	if pub["status"] != "draft" {
		t.Errorf("status = %v, want draft", pub["status"])
	}
	if pub["created_by"] != "editor-1" {
		t.Errorf("created_by = %v, want editor-1", pub["created_by"])
	}
}

func TestCreatePublicationHandler_InvalidCommittee(t *testing.T) {
	_, r := newEditorRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/publications", jsonBody(map[string]string{
		"title":     "Budget commentary",
		"committee": "NOPE",
	})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreatePublicationHandler_MissingTitle(t *testing.T) {
	_, r := newEditorRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/publications", jsonBody(map[string]string{
		"committee": "DTC",
	})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// UpdatePublicationHandler
// ---------------------------------------------------------------------------

func TestUpdatePublicationHandler_Success(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("pub-1").
		WillReturnRows(samplePublicationRow("draft"))
	mock.ExpectExec("UPDATE publications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/publications/pub-1", jsonBody(map[string]string{
		"title":     "Revised commentary",
		"committee": "BOTH",
	})))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	pub, ok := resp["publication"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing 'publication' key")
	}
	if pub["title"] != "Revised commentary" {
		t.Errorf("title = %v, want Revised commentary", pub["title"])
	}
}

func TestUpdatePublicationHandler_NotFound(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(publicationSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/publications/missing", jsonBody(map[string]string{
		"title":     "Revised commentary",
		"committee": "DTC",
	})))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Publish / unpublish / delete
// ---------------------------------------------------------------------------

func TestPublishPublicationHandler_Success(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectExec("UPDATE publications").
		WithArgs("pub-1", "published", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT").WithArgs("pub-1").
		WillReturnRows(sqlmock.NewRows(publicationSQLCols).
			AddRow("pub-1", "Budget commentary", nil, nil, nil, nil, nil,
				"DTC", "published", time.Now(), "editor-1", time.Now(), time.Now()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/publications/pub-1/publish", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	pub, ok := resp["publication"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing 'publication' key")
	}
	if pub["status"] != "published" {
		t.Errorf("status = %v, want published", pub["status"])
	}
	if pub["published_at"] == nil {
		t.Error("published_at not stamped")
	}
}

func TestPublishPublicationHandler_NotFound(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectExec("UPDATE publications").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/publications/missing/publish", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUnpublishPublicationHandler_Success(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectExec("UPDATE publications").
		WithArgs("pub-1", "unpublished", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT").WithArgs("pub-1").
		WillReturnRows(samplePublicationRow("unpublished"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/publications/pub-1/unpublish", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestDeletePublicationHandler_Success(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("pub-1").
		WillReturnRows(samplePublicationRow("draft"))
	mock.ExpectExec("DELETE FROM publications").WithArgs("pub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/publications/pub-1", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := getJSON(w)
	if resp["deleted"] != true {
		t.Errorf("deleted = %v, want true", resp["deleted"])
	}
}

func TestDeletePublicationHandler_NotFound(t *testing.T) {
	mock, r := newEditorRouter(t)

	mock.ExpectQuery("SELECT").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(publicationSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/publications/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
