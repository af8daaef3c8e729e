package web

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// SPA はフロントのビルド出力を配信する NoRoute ハンドラ。
// 実ファイルがあればそれを返し、無ければ index.html にフォールバックする
func SPA(root fs.FS) gin.HandlerFunc {
	fileFS := http.FS(root)

	return func(c *gin.Context) {
		// API は対象外
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
			return
		}

		reqPath := strings.TrimPrefix(path.Clean(c.Request.URL.Path), "/")
		if reqPath == "" {
			reqPath = "index.html"
		}

		if serveFile(c, fileFS, reqPath) {
			return
		}
		if serveFile(c, fileFS, "index.html") {
			return
		}
		c.Status(http.StatusNotFound)
	}
}

func serveFile(c *gin.Context, fileFS http.FileSystem, name string) bool {
	f, err := fileFS.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		c.Header("Content-Type", ct)
	}
	// index.html 以外はキャッシュ（SPAの基本運用）
	if !strings.HasSuffix(name, "index.html") {
		c.Header("Cache-Control", "public, max-age=86400, immutable")
	}
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
	return true
}
