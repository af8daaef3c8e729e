package loans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/web"
)

type Handler struct{ svc *Service }

// RegisterRoutes: r は /api/public/loans（認証なし）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("", h.List)
	r.POST("", h.Borrow)
	r.GET("/:loanId", h.Get)
	r.PATCH("/:loanId/return", h.Return)
}

// List godoc
// @Summary  貸出記録の一覧
// @Tags     loans
// @Param    mediaPropertyNumber query string false "財產編號"
// @Param    status              query string false "borrowed / returned"
// @Param    unit                query string false "単位"
// @Success  200 {array} Loan
// @Router   /public/loans [get]
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), Filter{
		MediaPropertyNumber: c.Query("mediaPropertyNumber"),
		Status:              Status(c.Query("status")),
		Unit:                c.Query("unit"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Borrow godoc
// @Summary  貸出（媒体ごとに1件ずつ作成）
// @Tags     loans
// @Accept   json
// @Param    body body BorrowRequest true "borrow request"
// @Success  201 {object} BorrowResponse
// @Failure  400 {object} apperr.ErrorResponse
// @Failure  409 {object} apperr.ErrorResponse
// @Router   /public/loans [post]
func (h *Handler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Invalid("invalid json"))
		return
	}
	res, err := h.svc.Borrow(c.Request.Context(), req, web.SourceIP(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, BorrowResponse{Message: "借用紀錄已建立", Loans: res})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("loanId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Return godoc
// @Summary  返却
// @Tags     loans
// @Param    loanId path string true "loan id"
// @Success  200 {object} ReturnResponse
// @Failure  404 {object} apperr.ErrorResponse
// @Failure  409 {object} apperr.ErrorResponse
// @Router   /public/loans/{loanId}/return [patch]
func (h *Handler) Return(c *gin.Context) {
	res, err := h.svc.Return(c.Request.Context(), c.Param("loanId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ReturnResponse{Message: "已歸還", Loan: res})
}
