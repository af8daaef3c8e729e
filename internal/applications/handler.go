package applications

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/auth"
	"MediaLoan-backend/internal/platform/web"
)

const maxBodyBytes = 1 << 20

type Handler struct{ svc *Service }

// RegisterRoutes: admin には認証・権限チェックのチェーンを渡す
func RegisterRoutes(r gin.IRoutes, svc *Service, admin ...gin.HandlerFunc) {
	h := &Handler{svc: svc}
	guarded := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, admin...), fn)
	}

	r.POST("", h.Create)
	r.GET("", guarded(h.List)...)
	r.GET("/unit/:unit", h.ListByUnit)
	r.PATCH("/submission/:submissionId/withdraw", h.WithdrawSubmission)

	r.GET("/:id", h.Get)
	r.PATCH("/:id/status", guarded(h.UpdateStatus)...)
	r.PATCH("/:id/withdraw", h.Withdraw)
	r.POST("/:id/regenerate-pdf", guarded(h.RegeneratePDF)...)
	r.GET("/:id/download", h.Download)
}

// Create godoc
// @Summary  申請の送信（1件または配列）
// @Tags     applications
// @Accept   json
// @Produce  json
// @Param    body body CreateApplicationRequest true "application or array of applications"
// @Success  201 {object} CreateResponse
// @Failure  400 {object} apperr.ErrorResponse
// @Router   /applications [post]
func (h *Handler) Create(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		_ = c.Error(apperr.Invalid("failed to read body"))
		return
	}
	reqs, err := decodeCreate(body)
	if err != nil {
		_ = c.Error(apperr.Wrap(apperr.CodeInvalidArgument, "invalid json", err))
		return
	}

	created, submissionID, err := h.svc.Create(c.Request.Context(), reqs, web.SourceIP(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, CreateResponse{
		Message:      "申請已成功接收！",
		SubmissionID: submissionID,
		Applications: created,
	})
}

// List godoc
// @Summary  申請一覧（管理者）
// @Tags     applications
// @Security BearerAuth
// @Param    status query string false "pending / approved / rejected / withdrawn"
// @Success  200 {array} Application
// @Router   /applications [get]
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListByUnit(c *gin.Context) {
	res, err := h.svc.ListByUnit(c.Request.Context(), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateStatus godoc
// @Summary  審査（approved / rejected / withdrawn）
// @Tags     applications
// @Security BearerAuth
// @Param    id   path string        true "application id"
// @Param    body body StatusRequest true "new status"
// @Success  200 {object} StatusResult
// @Failure  404 {object} apperr.ErrorResponse
// @Failure  409 {object} apperr.ErrorResponse
// @Router   /applications/{id}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Invalid("status is required"))
		return
	}
	res, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, auth.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Withdraw(c *gin.Context) {
	res, err := h.svc.Withdraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, StatusResult{Message: "Application withdrawn.", Application: res})
}

func (h *Handler) WithdrawSubmission(c *gin.Context) {
	sid := c.Param("submissionId")
	res, err := h.svc.WithdrawSubmission(c.Request.Context(), sid)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, WithdrawSubmissionResult{
		Message:      "Submission withdrawn.",
		SubmissionID: sid,
		Withdrawn:    res,
	})
}

func (h *Handler) RegeneratePDF(c *gin.Context) {
	res, err := h.svc.RegeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, StatusResult{Message: "PDF regenerated.", Application: res})
}

// Download godoc
// @Summary  承認書 PDF のダウンロード
// @Tags     applications
// @Produce  application/pdf
// @Param    id path string true "application id"
// @Success  200 {file} file
// @Failure  404 {object} apperr.ErrorResponse "PDF_NOT_FOUND"
// @Router   /applications/{id}/download [get]
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("id")
	rc, size, err := h.svc.OpenPDF(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, size, "application/pdf", rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + id + `.pdf"`,
	})
}
