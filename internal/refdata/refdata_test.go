package refdata

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/db"
)

var testOpts = Options{
	Columns: db.Columns{
		Unit:          "(自)所屬單位",
		Category:      "(自)分類",
		Custodian:     "保管人",
		ContactPerson: "(自)單位管控窗口",
		AssetName:     "資產名稱",
		AssetNumber:   "財產編號",
	},
	USBCategory: "隨身碟",
}

var sheetRows = [][]any{
	{" 財產編號 ", "(自)分類", "資產名稱", "(自)所屬單位", "保管人", "(自)單位管控窗口"},
	{"A-001", "隨身碟", "USB 32G", "資訊室", "王小明", "陳窗口"},
	{"A-002", "筆電", "ThinkPad", "資訊室", "林大華", "陳窗口"},
	{},
	{"A-003", "隨身碟", "USB 64G", " 總務處 ", "王小明"},
	{"A-004", "隨身碟", "USB 32G", "人事室", "張三", "李窗口"},
}

func buildWorkbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	return f
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := buildWorkbook(t, rows)
	path := filepath.Join(t.TempDir(), "assets.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func loadFixture(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := Load(writeWorkbook(t, sheetRows), testOpts)
	require.NoError(t, err)
	return snap
}

func TestLoad_RowsKeyedByTrimmedHeader(t *testing.T) {
	snap := loadFixture(t)

	require.Equal(t, 4, snap.Len())
	assert.Equal(t, "Sheet1", snap.Sheet())
	rows := snap.Rows()
	assert.Equal(t, "A-001", rows[0]["財產編號"])
	// 欠けたセルも "" でキーが存在する
	v, ok := rows[2]["(自)單位管控窗口"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, "總務處", rows[2]["(自)所屬單位"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), testOpts)
	assert.Error(t, err)
}

func TestParseRows_NoHeader(t *testing.T) {
	_, err := parseRows(nil)
	assert.ErrorIs(t, err, ErrNoHeader)
	_, err = parseRows([][]string{{" ", ""}})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestSnapshot_Queries(t *testing.T) {
	snap := loadFixture(t)

	assert.Equal(t, []string{"資訊室", "總務處", "人事室"}, snap.Units())

	assert.Len(t, snap.ByUnit(""), 4)
	assert.Len(t, snap.ByUnit(" 資訊室"), 2)
	assert.Empty(t, snap.ByUnit("不存在"))

	got := snap.ByUnits([]string{"總務處", "人事室", ""})
	require.Len(t, got, 2)
	assert.Equal(t, "A-003", got[0]["財產編號"])

	assert.Len(t, snap.ByCategory("隨身碟"), 3)

	c := snap.USBContacts()
	assert.Equal(t, []string{"王小明", "張三"}, c.Custodians)
	assert.Equal(t, []string{"陳窗口", "李窗口"}, c.ContactPersons)
	assert.Equal(t, []string{"USB 32G", "USB 64G"}, c.AssetNames)

	assert.True(t, snap.HasAsset("A-004"))
	assert.False(t, snap.HasAsset("Z-999"))
}

func TestSnapshot_WidthFolding(t *testing.T) {
	snap := NewSnapshot([]Row{
		{"(自)所屬單位": "ＩＴ室", "(自)分類": "隨身碟"},
		{"(自)所屬單位": "IT室", "(自)分類": "隨身碟"},
	}, testOpts)

	assert.Len(t, snap.ByUnit("IT室"), 2)
	assert.Equal(t, []string{"ＩＴ室"}, snap.Units())
}

func TestSnapshot_Immutable(t *testing.T) {
	const unit = "(自)所屬單位"
	src := []Row{{unit: "A", "(自)分類": "隨身碟"}}
	snap := NewSnapshot(src, testOpts)

	// 元のマップを書き換えても反映されない
	src[0][unit] = "B"
	src[0] = Row{unit: "C"}
	assert.Equal(t, []string{"A"}, snap.Units())

	// 返した行を書き換えても反映されない
	rows := snap.Rows()
	rows[0][unit] = "D"
	rows[0] = nil
	byUnit := snap.ByUnit("A")
	require.Len(t, byUnit, 1)
	byUnit[0][unit] = "E"
	byUnits := snap.ByUnits([]string{"A"})
	require.Len(t, byUnits, 1)
	delete(byUnits[0], unit)
	byCat := snap.ByCategory("隨身碟")
	require.Len(t, byCat, 1)
	byCat[0][unit] = "F"

	assert.Equal(t, []string{"A"}, snap.Units())
	assert.Equal(t, "A", snap.Rows()[0][unit])
	assert.Len(t, snap.ByUnit("A"), 1)
}

func newRouter(t *testing.T, snap *Snapshot) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperr.Handler(apperr.ModeRelease, zaptest.NewLogger(t)))
	h := NewHandler(snap, zaptest.NewLogger(t))
	RegisterPublicRoutes(r.Group("/api/public"), h)
	RegisterAdminRoutes(r.Group("/api"), h)
	return r
}

func TestHandler_Public(t *testing.T) {
	r := newRouter(t, loadFixture(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public/units", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var units []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &units))
	assert.Equal(t, []string{"資訊室", "總務處", "人事室"}, units)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public/data?unit=%E4%BA%BA%E4%BA%8B%E5%AE%A4", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "張三", rows[0]["保管人"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public/usb-contacts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var c Contacts
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, []string{"USB 32G", "USB 64G"}, c.AssetNames)
}

func TestHandler_DataByUnits(t *testing.T) {
	r := newRouter(t, loadFixture(t))

	tests := []struct {
		name   string
		body   string
		status int
		n      int
	}{
		{"array", `{"units":["資訊室","總務處"]}`, http.StatusOK, 3},
		{"empty array", `{"units":[]}`, http.StatusOK, 0},
		{"not array", `{"units":"資訊室"}`, http.StatusBadRequest, 0},
		{"missing", `{}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/public/data-by-units", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				var body apperr.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "fail", body.Status)
				assert.Equal(t, apperr.CodeInvalidArgument, body.Error.Code)
				return
			}
			var rows []Row
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
			assert.Len(t, rows, tt.n)
		})
	}
}

func TestHandler_UploadPreview(t *testing.T) {
	r := newRouter(t, loadFixture(t))

	f := buildWorkbook(t, [][]any{
		{"財產編號", "資產名稱"},
		{"B-1", "Camera"},
		{"B-2", "Tripod"},
	})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "new.xlsx")
	require.NoError(t, err)
	_, err = part.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res UploadPreview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "Tripod", res.Rows[1]["資產名稱"])

	// キャッシュは変わらない
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/excel-data", nil))
	var all []Row
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 4)
}

func TestHandler_UploadWithoutFile(t *testing.T) {
	r := newRouter(t, loadFixture(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/upload", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
