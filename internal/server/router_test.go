package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/issue-tracker-api/internal/config"
	"github.com/yukikurage/issue-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/middleware"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/services"
	"github.com/yukikurage/issue-tracker-api/internal/storage"
	"github.com/yukikurage/issue-tracker-api/internal/testutil"
	"gorm.io/gorm"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type RouterSuite struct {
	suite.Suite

	db     *gorm.DB
	router *gin.Engine
	tokens *services.TokenService

	reporter *models.User
	other    *models.User
	backend  *models.User
	admin    *models.User
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	t := s.T()

	s.db = testutil.NewDB(t)
	blobs, err := storage.NewLocalBlobStore(t.TempDir())
	s.Require().NoError(err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		JWTSecret:       "router-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	s.tokens = services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	s.router = NewRouter(Deps{
		Config:       cfg,
		DB:           s.db,
		Blobs:        blobs,
		SessionStore: cookie.NewStore([]byte("session-secret")),
		Limiter:      middleware.NewLoginLimiter(rdb, 3, time.Minute, testutil.Logger()),
		Metrics:      metrics.New(prometheus.NewRegistry()),
		Logger:       testutil.Logger(),
	})

	s.reporter = testutil.CreateUser(t, s.db, "reporter@example.com", models.RoleReporter)
	s.other = testutil.CreateUser(t, s.db, "other@example.com", models.RoleReporter)
	s.backend = testutil.CreateUser(t, s.db, "backend@example.com", models.RoleBackend)
	s.admin = testutil.CreateUser(t, s.db, "admin@example.com", models.RoleAdmin)
}

func (s *RouterSuite) bearer(user *models.User) string {
	token, _, err := s.tokens.Issue(user)
	s.Require().NoError(err)
	return "Bearer " + token
}

func (s *RouterSuite) do(method, path string, user *models.User, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", s.bearer(user))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) upload(user *models.User, commentID uint64, name, contentType string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("comment_id", fmt.Sprint(commentID)))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", s.bearer(user))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *RouterSuite) errorCode(w *httptest.ResponseRecorder) string {
	var apiErr apierrors.APIError
	s.decode(w, &apiErr)
	return apiErr.Code
}

func (s *RouterSuite) createIssue(user *models.User, fields map[string]any) dto.IssueDTO {
	body := map[string]any{"issue_name": "Crash on save", "type_id": 1, "priority_id": 2, "status": "Triage"}
	for k, v := range fields {
		body[k] = v
	}
	w := s.do(http.MethodPost, "/api/issues", user, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var issue dto.IssueDTO
	s.decode(w, &issue)
	return issue
}

func (s *RouterSuite) history(user *models.User, issueID uint64) []dto.StatusHistoryDTO {
	w := s.do(http.MethodGet, fmt.Sprintf("/api/issues/%d/history", issueID), user, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		History []dto.StatusHistoryDTO `json:"history"`
	}
	s.decode(w, &resp)
	return resp.History
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestCreateIssueWritesHistory() {
	issue := s.createIssue(s.reporter, nil)
	s.Equal(models.StatusTriage, issue.StatusID)
	s.Equal("Triage", issue.Status)
	s.Equal(s.reporter.ID, issue.CreatorID)
	s.Equal(models.RoleTriager, issue.RespRoleID)

	history := s.history(s.reporter, issue.ID)
	s.Require().Len(history, 1)
	s.Equal(models.StatusTriage, history[0].StatusID)
	s.Equal(s.reporter.ID, history[0].User.ID)
}

func (s *RouterSuite) TestOnlyReportersCreateIssues() {
	w := s.do(http.MethodPost, "/api/issues", s.backend, map[string]any{
		"issue_name": "Crash", "type_id": 1, "priority_id": 2, "status_id": 1,
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/issues", s.reporter, map[string]any{
		"issue_name": "Crash", "type_id": 1, "priority_id": 2, "status": "Sleeping",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal(apierrors.ErrCodeInvalidState, s.errorCode(w))
}

func (s *RouterSuite) TestAuthenticationAndIDs() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/issues", nil, nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/issues/abc", s.reporter, nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/issues/0", s.reporter, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/issues/999", s.reporter, nil).Code)
}

func (s *RouterSuite) TestVisibility() {
	issue := s.createIssue(s.reporter, map[string]any{"resp_role_id": models.RoleBackend})
	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, path, s.other, nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, path, s.backend, nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, path, s.admin, nil).Code)

	w := s.do(http.MethodGet, "/api/issues", s.other, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.IssueListResponse
	s.decode(w, &list)
	s.Empty(list.Issues)
}

func (s *RouterSuite) TestClosedIssueIsLocked() {
	issue := s.createIssue(s.reporter, nil)
	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	w := s.do(http.MethodPut, path, s.reporter, map[string]any{"status": "Bogus"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal(apierrors.ErrCodeInvalidState, s.errorCode(w))

	w = s.do(http.MethodPut, path, s.reporter, map[string]any{"status": "Closed"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var closed dto.IssueDTO
	s.decode(w, &closed)
	s.NotNil(closed.ClosedAt)

	for _, body := range []map[string]any{
		{"issue_name": "Reopen please"},
		{"status": "Triage"},
		{"status": "Bogus"},
		{"status_id": 99},
	} {
		w = s.do(http.MethodPut, path, s.reporter, body)
		s.Equal(http.StatusLocked, w.Code, "body %v", body)
		s.Equal(apierrors.ErrCodeStateLocked, s.errorCode(w), "body %v", body)
	}

	w = s.do(http.MethodPost, "/api/comments", s.reporter, map[string]any{"issue_id": issue.ID, "comment_text": "hello?"})
	s.Equal(http.StatusLocked, w.Code)

	s.Len(s.history(s.reporter, issue.ID), 2)

	// admins may still purge it
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, path, s.reporter, nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodDelete, path, s.admin, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, s.admin, nil).Code)
}

func (s *RouterSuite) TestAttachments() {
	issue := s.createIssue(s.reporter, map[string]any{"status": "Resolving"})
	w := s.do(http.MethodPost, "/api/comments", s.reporter, map[string]any{"issue_id": issue.ID, "comment_text": "screenshot attached"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var comment dto.CommentDTO
	s.decode(w, &comment)

	w = s.upload(s.reporter, comment.ID, "shot.png", "image/png", pngBytes)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Documents []dto.DocumentDTO `json:"documents"`
	}
	s.decode(w, &created)
	s.Require().Len(created.Documents, 1)
	doc := created.Documents[0]

	w = s.do(http.MethodGet, fmt.Sprintf("/api/uploads/%d", doc.ID), s.reporter, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("image/png", w.Header().Get("Content-Type"))
	s.Equal(pngBytes, w.Body.Bytes())

	s.Equal(http.StatusForbidden, s.upload(s.other, comment.ID, "shot.png", "image/png", pngBytes).Code)
	s.Equal(http.StatusUnsupportedMediaType, s.upload(s.reporter, comment.ID, "notes.png", "image/png", []byte("plain text")).Code)

	s.Equal(http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/uploads/%d", doc.ID), s.reporter, nil).Code)

	w = s.upload(s.reporter, comment.ID, "again.png", "image/png", pngBytes)
	s.Require().Equal(http.StatusCreated, w.Code)
	s.decode(w, &created)
	again := created.Documents[0]

	s.Require().Equal(http.StatusOK, s.do(http.MethodPut, fmt.Sprintf("/api/issues/%d", issue.ID), s.reporter, map[string]any{"status": "Closed"}).Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/uploads/%d", again.ID), s.reporter, nil)
	s.Equal(http.StatusLocked, w.Code)
	s.Equal(http.StatusLocked, s.upload(s.reporter, comment.ID, "late.png", "image/png", pngBytes).Code)
	s.Equal(http.StatusLocked, s.do(http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), s.reporter, nil).Code)
}

func (s *RouterSuite) TestListFiltersAndPaginates() {
	s.createIssue(s.reporter, map[string]any{"status": "Triage"})
	s.createIssue(s.reporter, map[string]any{"status": "Resolving"})
	s.createIssue(s.reporter, map[string]any{"status": "Verify"})

	w := s.do(http.MethodGet, "/api/issues?status_id=1,4&limit=1&sortBy=issue_id&sortOrder=desc", s.reporter, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var list dto.IssueListResponse
	s.decode(w, &list)
	s.Equal(int64(2), list.Pagination.Total)
	s.Equal(1, list.Pagination.Limit)
	s.Require().Len(list.Issues, 1)
	s.Equal(models.StatusResolving, list.Issues[0].StatusID)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/issues?password=1", s.reporter, nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/issues?status_id=open", s.reporter, nil).Code)
}

func (s *RouterSuite) TestMinimumRoles() {
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/users", s.reporter, map[string]any{
		"first_name": "New", "last_name": "User", "email": "new@example.com",
	}).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/products", s.reporter, map[string]any{"product_name": "Web"}).Code)
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/products", s.admin, map[string]any{"product_name": "Web"}).Code)

	w := s.do(http.MethodGet, "/api/statuses", s.reporter, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var statuses struct {
		Statuses []models.Status `json:"statuses"`
	}
	s.decode(w, &statuses)
	s.Len(statuses.Statuses, 6)
}

func (s *RouterSuite) TestLoginIsRateLimited() {
	body := map[string]string{"email": "reporter@example.com", "password": "wrong-password"}
	for i := 0; i < 3; i++ {
		s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/login", nil, body).Code)
	}
	w := s.do(http.MethodPost, "/login", nil, body)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.NotEmpty(w.Header().Get("Retry-After"))
}

func (s *RouterSuite) TestLoginThenMe() {
	w := s.do(http.MethodPost, "/login", nil, map[string]string{"email": "reporter@example.com", "password": testutil.Password})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var login dto.LoginResponse
	s.decode(w, &login)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	var me dto.UserDTO
	s.decode(w, &me)
	s.Equal(s.reporter.ID, me.ID)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.createIssue(s.reporter, nil)
	w := s.do(http.MethodGet, "/metrics", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `issue_tracker_status_transitions_total{to="Triage"} 1`)
	s.Contains(w.Body.String(), "issue_tracker_http_requests_total")
}
