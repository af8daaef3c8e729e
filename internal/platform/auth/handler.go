package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"MediaLoan-backend/internal/platform/apperr"
)

type AuthHandler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &AuthHandler{svc: svc}
	r.POST("/login", h.Login)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login godoc
// @Summary  管理者ログイン
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body LoginRequest true "credentials"
// @Success  200 {object} LoginResponse
// @Failure  401 {object} apperr.ErrorResponse
// @Failure  429 {object} apperr.ErrorResponse
// @Router   /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Invalid("username and password are required"))
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		_ = c.Error(apperr.Unauthorized("Invalid credentials"))
		return
	}
	if errors.Is(err, ErrTooManyAttempts) {
		_ = c.Error(apperr.TooManyRequests("Too many failed attempts. Try again later."))
		return
	}
	if err != nil {
		_ = c.Error(apperr.Wrap(apperr.CodeInternal, "Login failed due to server error.", err))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, Message: "Login successful"})
}
