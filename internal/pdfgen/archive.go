package pdfgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var (
	ErrNotFound   = errors.New("pdf not found")
	ErrInvalidKey = errors.New("invalid pdf key")

	keyRe = regexp.MustCompile(`^[0-9A-Za-z_-]{1,64}$`)
)

// ArchiveStore は生成済み PDF の保管先。キーは申請ID
type ArchiveStore interface {
	Save(ctx context.Context, id string, pdf []byte) error
	Open(ctx context.Context, id string) (io.ReadCloser, int64, error)
}

// Archive はローカルディレクトリ版。ファイル名は <申請ID>.pdf
type Archive struct {
	dir string
}

var _ ArchiveStore = (*Archive)(nil)

func NewArchive(dir string) *Archive { return &Archive{dir: dir} }

func validKey(id string) error {
	if !keyRe.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, id)
	}
	return nil
}

func (a *Archive) Dir() string { return a.dir }

func (a *Archive) Path(id string) (string, error) {
	if err := validKey(id); err != nil {
		return "", err
	}
	return filepath.Join(a.dir, id+".pdf"), nil
}

// Save は一時ファイル → rename で置き換える（再生成時の上書き含む）
func (a *Archive) Save(ctx context.Context, id string, pdf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := a.Path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", a.dir, err)
	}

	tmp, err := os.CreateTemp(a.dir, "."+id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close pdf: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename pdf: %w", err)
	}
	return nil
}

// Open は読み出し用に開く。サイズも返す（ストリーミング用）
func (a *Archive) Open(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	p, err := a.Path(id)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open pdf: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat pdf: %w", err)
	}
	return f, st.Size(), nil
}

func (a *Archive) Exists(id string) bool {
	p, err := a.Path(id)
	if err != nil {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
