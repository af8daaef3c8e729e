package pdfgen

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const contentXML = "content.xml"

var (
	ErrContentMissing = errors.New("content.xml not found in template")

	placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)
	xmlEscaper    = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// FillTemplate は ODT（zip）の content.xml の {{key}} を値で置き換える。
// 他のエントリは生のままコピーするので mimetype は先頭・無圧縮のまま
func FillTemplate(odt []byte, fields map[string]string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(odt), int64(len(odt)))
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	found := false
	for _, f := range zr.File {
		if normalizeZipName(f.Name) != contentXML {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}
		found = true

		src, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     contentXML,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", contentXML, err)
		}
		if _, err := io.WriteString(w, substitute(string(src), fields)); err != nil {
			return nil, fmt.Errorf("write %s: %w", contentXML, err)
		}
	}
	if !found {
		return nil, ErrContentMissing
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close template: %w", err)
	}
	return out.Bytes(), nil
}

// 未知のキーはそのまま残す
func substitute(xml string, fields map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(xml, func(m string) string {
		key := m[2 : len(m)-2]
		v, ok := fields[key]
		if !ok {
			return m
		}
		return xmlEscaper.Replace(v)
	})
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
