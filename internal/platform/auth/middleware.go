package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"MediaLoan-backend/internal/platform/apperr"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める。
// ヘッダ無しは 401、それ以外の不正（形式・署名・期限切れ）は 403
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			apperr.Abort(c, apperr.Unauthorized("missing Authorization header"))
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			apperr.Abort(c, apperr.Forbidden("invalid Authorization header"))
			return
		}

		token, err := jwt.Parse(strings.TrimSpace(parts[1]), func(t *jwt.Token) (any, error) {
			return secret, nil
		},
			// alg 固定（none攻撃とか回避）
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || token == nil || !token.Valid {
			apperr.Abort(c, apperr.Forbidden("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			apperr.Abort(c, apperr.Forbidden("invalid claims"))
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			apperr.Abort(c, apperr.Forbidden("invalid sub"))
			return
		}
		role, _ := claims["role"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// RequireRole: RequireAuth の後ろに付ける
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if _, allowed := roleSet[role]; !allowed {
			apperr.Abort(c, apperr.Forbidden("forbidden"))
			return
		}
		c.Next()
	}
}

// UserID は認証済みユーザー名（未認証なら ""）
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
