package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/auth"
)

var handlerSecret = []byte("handler-secret")

func newTestRouter(t *testing.T, f *fixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperr.Handler(apperr.ModeRelease, zaptest.NewLogger(t)))
	RegisterRoutes(r.Group("/api/applications"), f.svc, auth.RequireAuth(handlerSecret), auth.RequireRole(auth.DefaultRole))
	return r
}

func adminToken(t *testing.T) string {
	t.Helper()
	return roleToken(t, "admin", "admin")
}

func roleToken(t *testing.T, sub, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(handlerSecret)
	require.NoError(t, err)
	return s
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "[::ffff:192.168.1.20]:51234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandler_SubmitApproveDownload(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	token := adminToken(t)

	w := do(r, http.MethodPost, "/api/applications", `{"affiliatedUnit":"IT","custodian":"Alice","reason":"x"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[CreateResponse](t, w)
	require.Len(t, created.Applications, 1)
	app := created.Applications[0]
	assert.Equal(t, StatusPending, app.Status)
	assert.NotEmpty(t, app.ID)
	assert.False(t, app.CreatedAt.IsZero())
	assert.Equal(t, "192.168.1.20", app.SourceIP)

	w = do(r, http.MethodGet, "/api/applications/unit/IT", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	byUnit := decode[[]Application](t, w)
	require.Len(t, byUnit, 1)
	assert.Equal(t, app.ID, byUnit[0].ID)

	w = do(r, http.MethodPatch, "/api/applications/"+app.ID+"/status", `{"status":"approved"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[StatusResult](t, w)
	assert.Empty(t, res.Warning)
	assert.Equal(t, StatusApproved, res.Application.Status)
	assert.Equal(t, "admin", res.Application.ReviewedBy)

	w = do(r, http.MethodGet, "/api/applications/"+app.ID+"/download", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), app.ID+".pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestHandler_SubmitArray(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)

	w := do(r, http.MethodPost, "/api/applications",
		`[{"affiliatedUnit":"IT","custodian":"A"},{"affiliatedUnit":"IT","custodian":"B"}]`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	res := decode[CreateResponse](t, w)
	require.Len(t, res.Applications, 2)
	assert.Equal(t, res.SubmissionID, res.Applications[1].SubmissionID)

	w = do(r, http.MethodPatch, "/api/applications/submission/"+res.SubmissionID+"/withdraw", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	wd := decode[WithdrawSubmissionResult](t, w)
	assert.Len(t, wd.Withdrawn, 2)

	w = do(r, http.MethodPost, "/api/applications", `{"affiliatedUnit":"IT"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/api/applications", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_AdminRoutesNeedToken(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	app := f.create(t, req("IT", "Alice"))[0]

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/applications", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/applications", "", "bogus").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPatch, "/api/applications/"+app.ID+"/status", `{"status":"approved"}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/applications/"+app.ID+"/regenerate-pdf", "", "").Code)

	w := do(r, http.MethodGet, "/api/applications?status=pending", "", adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]Application](t, w), 1)
}

func TestHandler_AdminRoutesNeedAdminRole(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	app := f.create(t, req("IT", "Alice"))[0]
	viewer := roleToken(t, "v", "viewer")

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/applications", "", viewer).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPatch, "/api/applications/"+app.ID+"/status", `{"status":"approved"}`, viewer).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/applications/"+app.ID+"/regenerate-pdf", "", viewer).Code)

	got, err := f.svc.Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.ApplNumber)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	token := adminToken(t)
	app := f.create(t, req("IT", "Alice"))[0]

	tests := []struct {
		name, method, path, body, token string
		status                          int
		code                            apperr.Code
	}{
		{"get missing", http.MethodGet, "/api/applications/nope", "", "", http.StatusNotFound, apperr.CodeNotFound},
		{"download missing", http.MethodGet, "/api/applications/" + app.ID + "/download", "", "", http.StatusNotFound, apperr.CodePDFNotFound},
		{"bad status", http.MethodPatch, "/api/applications/" + app.ID + "/status", `{"status":"lost"}`, token, http.StatusBadRequest, apperr.CodeInvalidArgument},
		{"no status", http.MethodPatch, "/api/applications/" + app.ID + "/status", `{}`, token, http.StatusBadRequest, apperr.CodeInvalidArgument},
		{"regenerate pending", http.MethodPost, "/api/applications/" + app.ID + "/regenerate-pdf", "", token, http.StatusConflict, apperr.CodeInvalidTransition},
		{"withdraw unknown submission", http.MethodPatch, "/api/applications/submission/zzz/withdraw", "", "", http.StatusNotFound, apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body, tt.token)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode[apperr.ErrorResponse](t, w)
			assert.Equal(t, "fail", body.Status)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}

	// 取り下げ後の再取り下げは 409
	assert.Equal(t, http.StatusOK, do(r, http.MethodPatch, "/api/applications/"+app.ID+"/withdraw", "", "").Code)
	w := do(r, http.MethodPatch, "/api/applications/"+app.ID+"/withdraw", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_ApproveWithPDFFailureWarns(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = assert.AnError
	r := newTestRouter(t, f)
	app := f.create(t, req("IT", "Alice"))[0]

	w := do(r, http.MethodPatch, "/api/applications/"+app.ID+"/status", `{"status":"approved"}`, adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[StatusResult](t, w)
	assert.Equal(t, pdfWarning, res.Warning)

	w = do(r, http.MethodGet, "/api/applications/"+app.ID+"/download", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_UnitIsPathDecoded(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	f.create(t, req("資訊室", "Alice"))

	w := do(r, http.MethodGet, "/api/applications/unit/"+url.PathEscape("資訊室"), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]Application](t, w), 1)
}
