package refdata

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/logger"
)

// アップロードの上限（台帳は数千行程度）
const maxUploadBytes = 20 << 20

type Handler struct {
	snap *Snapshot
	log  *zap.Logger
}

func NewHandler(snap *Snapshot, log *zap.Logger) *Handler {
	return &Handler{snap: snap, log: logger.OrNop(log)}
}

// RegisterPublicRoutes: 認証不要の参照系（/api/public 配下）
func RegisterPublicRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/units", h.Units)
	r.GET("/data", h.Data)
	r.POST("/data-by-units", h.DataByUnits)
	r.GET("/usb-contacts", h.USBContacts)
}

// RegisterAdminRoutes: 認証済みグループに載せる
func RegisterAdminRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/excel-data", h.ExcelData)
	r.POST("/upload", h.Upload)
}

// Units godoc
// @Summary  所属単位の一覧
// @Tags     public
// @Produce  json
// @Success  200 {array} string
// @Router   /public/units [get]
func (h *Handler) Units(c *gin.Context) {
	c.JSON(http.StatusOK, h.snap.Units())
}

// Data godoc
// @Summary  単位で絞った台帳行（unit 省略時は全件）
// @Tags     public
// @Param    unit query string false "所属単位"
// @Success  200 {array} object
// @Router   /public/data [get]
func (h *Handler) Data(c *gin.Context) {
	c.JSON(http.StatusOK, h.snap.ByUnit(c.Query("unit")))
}

// DataByUnits godoc
// @Summary  複数単位の台帳行
// @Tags     public
// @Accept   json
// @Param    body body DataByUnitsRequest true "units"
// @Success  200 {array} object
// @Failure  400 {object} apperr.ErrorResponse
// @Router   /public/data-by-units [post]
func (h *Handler) DataByUnits(c *gin.Context) {
	var req DataByUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Units == nil {
		_ = c.Error(apperr.Invalid("Invalid input: units must be an array."))
		return
	}
	c.JSON(http.StatusOK, h.snap.ByUnits(req.Units))
}

// USBContacts godoc
// @Summary  隨身碟の保管人・窓口・資産名
// @Tags     public
// @Success  200 {object} Contacts
// @Router   /public/usb-contacts [get]
func (h *Handler) USBContacts(c *gin.Context) {
	c.JSON(http.StatusOK, h.snap.USBContacts())
}

func (h *Handler) ExcelData(c *gin.Context) {
	c.JSON(http.StatusOK, h.snap.Rows())
}

// Upload: 受け取ったワークブックを解析して結果を返すだけ（キャッシュは差し替えない）
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(apperr.Invalid("file is required"))
		return
	}
	if fh.Size > maxUploadBytes {
		_ = c.Error(apperr.Invalid("file too large"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(apperr.Wrap(apperr.CodeInternal, "讀取失敗", err))
		return
	}
	defer f.Close()

	sheet, rows, err := Preview(f)
	if err != nil {
		_ = c.Error(apperr.Wrap(apperr.CodeInvalidArgument, "讀取失敗", err))
		return
	}
	h.log.Info("excel upload parsed",
		zap.String("filename", fh.Filename),
		zap.String("sheet", sheet),
		zap.Int("rows", len(rows)),
	)
	c.JSON(http.StatusOK, UploadPreview{
		Message: "資料讀取完成",
		Sheet:   sheet,
		Count:   len(rows),
		Rows:    rows,
	})
}
