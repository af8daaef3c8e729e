package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Error model =====
// 各ドメインで個別に持っていたものをここに集約

type Code string

const (
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeConflict            Code = "CONFLICT"
	CodeTooManyRequests     Code = "TOO_MANY_REQUESTS"
	CodePDFNotFound         Code = "PDF_NOT_FOUND"
	CodePDFGenerationFailed Code = "PDF_GENERATION_FAILED"
	CodeInternal            Code = "INTERNAL"
)

// APIError は想定内（operational）のエラー。Err には原因を保持する（レスポンスには出さない）
type APIError struct {
	Code    Code
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func Invalid(msg string) *APIError      { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func Unauthorized(msg string) *APIError { return &APIError{Code: CodeUnauthorized, Message: msg} }
func Forbidden(msg string) *APIError    { return &APIError{Code: CodeForbidden, Message: msg} }
func NotFound(msg string) *APIError     { return &APIError{Code: CodeNotFound, Message: msg} }
func Conflict(msg string) *APIError     { return &APIError{Code: CodeConflict, Message: msg} }
func PDFNotFound(msg string) *APIError  { return &APIError{Code: CodePDFNotFound, Message: msg} }
func Internal(msg string) *APIError     { return &APIError{Code: CodeInternal, Message: msg} }
func TooManyRequests(msg string) *APIError {
	return &APIError{Code: CodeTooManyRequests, Message: msg}
}

// InvalidTransition: 状態遷移ルール違反（pending 以外の取り下げ、返却済みの再返却など）
func InvalidTransition(msg string) *APIError {
	return &APIError{Code: CodeInvalidTransition, Message: msg}
}

func PDFGenerationFailed(err error) *APIError {
	return &APIError{Code: CodePDFGenerationFailed, Message: "PDF generation failed", Err: err}
}

// Wrap は原因付きの APIError を作る
func Wrap(code Code, msg string, err error) *APIError {
	return &APIError{Code: code, Message: msg, Err: err}
}

// As: err が APIError ならそれを返す
func As(err error) (*APIError, bool) {
	var api *APIError
	if errors.As(err, &api) {
		return api, true
	}
	return nil, false
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code Code) bool {
	api, ok := As(err)
	return ok && api.Code == code
}

// IsOperational: 4xx に落ちる想定内エラーかどうか
func IsOperational(err error) bool {
	return ToHTTPStatus(err) < http.StatusInternalServerError
}

func ToHTTPStatus(err error) int {
	api, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch api.Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodePDFNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
