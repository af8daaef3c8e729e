package loans

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/recordstore"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type seqID struct{ n atomic.Int64 }

func (g *seqID) NewULID(time.Time) string { return fmt.Sprintf("L%04d", g.n.Add(1)) }

type ledger map[string]bool

func (l ledger) HasAsset(n string) bool { return l[n] }

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := recordstore.NewFileStore[Loan]("loans", filepath.Join(t.TempDir(), "loans.json"), log)
	svc := NewService(store, ledger{"M-1": true, "M-2": true}, log)
	svc.clock = &stepClock{now: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)}
	svc.id = &seqID{}
	return svc
}

func TestService_BorrowFansOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	loans, err := svc.Borrow(ctx, BorrowRequest{
		MediaPropertyNumbers: []string{"M-1", " M-2 ", "M-9"},
		Borrower:             "Alice",
		Reason:               "audit",
		Unit:                 "IT",
		ExpectedReturnDate:   "2025-05-08",
	}, "10.0.0.2")
	require.NoError(t, err)
	require.Len(t, loans, 3)

	ids := map[string]struct{}{}
	for i, l := range loans {
		ids[l.LoanID] = struct{}{}
		assert.Equal(t, StatusBorrowed, l.Status)
		assert.Equal(t, "2025-05-01", l.LoanDate)
		assert.Equal(t, "2025-05-08", l.ExpectedReturnDate)
		assert.Nil(t, l.ReturnDate)
		assert.Equal(t, []string{"M-1", "M-2", "M-9"}[i], l.MediaPropertyNumber)
	}
	assert.Len(t, ids, 3)

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, loans, all)
}

func TestService_BorrowValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   BorrowRequest
	}{
		{"no items", BorrowRequest{Borrower: "A"}},
		{"empty item", BorrowRequest{MediaPropertyNumbers: []string{"M-1", " "}, Borrower: "A"}},
		{"duplicate item", BorrowRequest{MediaPropertyNumbers: []string{"M-1", "M-1"}, Borrower: "A"}},
		{"no borrower", BorrowRequest{MediaPropertyNumbers: []string{"M-1"}}},
		{"bad loan date", BorrowRequest{MediaPropertyNumbers: []string{"M-1"}, Borrower: "A", LoanDate: "05/01/2025"}},
		{"bad expected", BorrowRequest{MediaPropertyNumbers: []string{"M-1"}, Borrower: "A", ExpectedReturnDate: "soon"}},
		{"expected before loan", BorrowRequest{MediaPropertyNumbers: []string{"M-1"}, Borrower: "A", LoanDate: "2025-05-10", ExpectedReturnDate: "2025-05-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Borrow(ctx, tt.in, "")
			assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument), err)
		})
	}
}

func TestService_BorrowConflictsWithOpenLoan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Borrow(ctx, BorrowRequest{MediaPropertyNumbers: []string{"M-1"}, Borrower: "A"}, "")
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, BorrowRequest{MediaPropertyNumbers: []string{"M-2", "M-1"}, Borrower: "B"}, "")
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	// 部分的には作らない
	all, _ := svc.List(ctx, Filter{})
	assert.Len(t, all, 1)

	_, err = svc.Return(ctx, first[0].LoanID)
	require.NoError(t, err)
	_, err = svc.Borrow(ctx, BorrowRequest{MediaPropertyNumbers: []string{"M-2", "M-1"}, Borrower: "B"}, "")
	assert.NoError(t, err)
}

func TestService_ReturnExactlyOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	loans, err := svc.Borrow(ctx, BorrowRequest{MediaPropertyNumbers: []string{"M-1"}, Borrower: "A"}, "")
	require.NoError(t, err)
	id := loans[0].LoanID

	got, err := svc.Return(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, got.Status)
	require.NotNil(t, got.ReturnDate)
	first := *got.ReturnDate

	_, err = svc.Return(ctx, id)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidTransition))

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, first.Equal(*stored.ReturnDate))

	_, err = svc.Return(ctx, "missing")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestService_ListFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a, err := svc.Borrow(ctx, BorrowRequest{MediaPropertyNumbers: []string{"M-1", "M-2"}, Borrower: "A", Unit: "IT"}, "")
	require.NoError(t, err)
	_, err = svc.Borrow(ctx, BorrowRequest{MediaPropertyNumbers: []string{"M-3"}, Borrower: "B", Unit: "HR"}, "")
	require.NoError(t, err)
	_, err = svc.Return(ctx, a[0].LoanID)
	require.NoError(t, err)

	count := func(f Filter) int {
		out, err := svc.List(ctx, f)
		require.NoError(t, err)
		return len(out)
	}
	assert.Equal(t, 3, count(Filter{}))
	assert.Equal(t, 1, count(Filter{MediaPropertyNumber: "M-1"}))
	assert.Equal(t, 2, count(Filter{Status: StatusBorrowed}))
	assert.Equal(t, 1, count(Filter{Status: StatusReturned}))
	assert.Equal(t, 2, count(Filter{Unit: "IT"}))
	assert.Equal(t, 1, count(Filter{Unit: "IT", Status: StatusBorrowed}))

	_, err = svc.List(ctx, Filter{Status: "lost"})
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
}

func TestService_ConcurrentBorrowOfSameItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var ok, conflict atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Borrow(ctx, BorrowRequest{MediaPropertyNumbers: []string{"M-1"}, Borrower: fmt.Sprint(i)}, "")
			switch {
			case err == nil:
				ok.Add(1)
			case apperr.IsCode(err, apperr.CodeConflict):
				conflict.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 9, conflict.Load())
}

func newRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperr.Handler(apperr.ModeRelease, zaptest.NewLogger(t)))
	RegisterRoutes(r.Group("/api/public/loans"), svc)
	return r
}

func call(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_BorrowListReturn(t *testing.T) {
	r := newRouter(t, newTestService(t))

	w := call(r, http.MethodPost, "/api/public/loans",
		`{"mediaPropertyNumbers":["M-1","M-2"],"borrower":"Alice","reason":"x","unit":"IT"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created BorrowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Loans, 2)

	w = call(r, http.MethodGet, "/api/public/loans?mediaPropertyNumber=M-2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []Loan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.Loans[1].LoanID, listed[0].LoanID)

	w = call(r, http.MethodPost, "/api/public/loans", `{"mediaPropertyNumbers":["M-2"],"borrower":"Bob"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	id := created.Loans[1].LoanID
	w = call(r, http.MethodPatch, "/api/public/loans/"+id+"/return", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ret ReturnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ret))
	assert.Equal(t, StatusReturned, ret.Loan.Status)
	assert.NotNil(t, ret.Loan.ReturnDate)

	w = call(r, http.MethodPatch, "/api/public/loans/"+id+"/return", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(r, http.MethodGet, "/api/public/loans/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = call(r, http.MethodGet, "/api/public/loans/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/api/public/loans", `{"mediaPropertyNumbers":"M-1","borrower":"Bob"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
