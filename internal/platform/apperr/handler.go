package apperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"

	genericMessage = "internal server error"
)

type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type ErrorResponse struct {
	Status string    `json:"status"` // 4xx: "fail" / 5xx: "error"
	Error  ErrorBody `json:"error"`
}

// Body はエラーをレスポンス形式に正規化する。
// release では想定外エラーの中身を出さない。dev では detail に原因を載せる
func Body(err error, mode string) ErrorResponse {
	status := ToHTTPStatus(err)
	res := ErrorResponse{Status: "fail"}
	if status >= http.StatusInternalServerError {
		res.Status = "error"
	}

	api, ok := As(err)
	switch {
	case ok:
		res.Error.Code = api.Code
		res.Error.Message = api.Message
		if mode == ModeDev && api.Err != nil {
			res.Error.Detail = api.Err.Error()
		}
	default:
		res.Error.Code = CodeInternal
		res.Error.Message = genericMessage
		if mode == ModeDev {
			res.Error.Detail = err.Error()
		}
	}
	return res
}

// Handler: ハンドラが c.Error(err) で積んだ最後のエラーをここでまとめて返す
func Handler(mode string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := ToHTTPStatus(err)

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}

		c.JSON(status, Body(err, mode))
	}
}

// Abort は c.Error + Abort のショートカット（ミドルウェア用）
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
