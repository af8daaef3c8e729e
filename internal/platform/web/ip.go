package web

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// NormalizeIP: "::ffff:10.0.0.1" → "10.0.0.1"、ポートやゾーンも落とす
func NormalizeIP(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(strings.ToLower(s), "::ffff:")

	ip := net.ParseIP(s)
	if ip == nil {
		return s
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

// SourceIP はリクエスト元IPを正規化して返す
func SourceIP(c *gin.Context) string {
	return NormalizeIP(c.ClientIP())
}
