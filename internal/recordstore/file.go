package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"MediaLoan-backend/internal/platform/logger"
	"MediaLoan-backend/internal/platform/metrics"
)

// FileStore は JSON 配列ファイル1本をバックエンドにする Store。
// 書き込みは同ディレクトリの一時ファイル → rename。Update は mutex で直列化する
type FileStore[T Record] struct {
	name string
	path string
	mu   sync.Mutex
	log  *zap.Logger
}

var _ Store[Record] = (*FileStore[Record])(nil)

func NewFileStore[T Record](name, path string, log *zap.Logger) *FileStore[T] {
	return &FileStore[T]{
		name: name,
		path: path,
		log:  logger.OrNop(log).With(zap.String("store", name), zap.String("path", path)),
	}
}

func (s *FileStore[T]) Name() string { return s.name }
func (s *FileStore[T]) Path() string { return s.path }

func (s *FileStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	records, err := s.read(ctx)
	metrics.ObserveStore(s.name, "read", err)
	return records, err
}

func (s *FileStore[T]) WriteAll(ctx context.Context, records []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.write(ctx, records)
	metrics.ObserveStore(s.name, "write", err)
	return err
}

func (s *FileStore[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		metrics.ObserveStore(s.name, "update", err)
		return err
	}
	out, err := fn(records)
	if err != nil {
		// 業務エラーはストア障害として数えない
		return err
	}
	err = s.write(ctx, out)
	metrics.ObserveStore(s.name, "update", err)
	return err
}

func (s *FileStore[T]) read(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("record file not found, treating as empty")
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		s.log.Warn("record file is empty, treating as empty")
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(buf, &records); err != nil {
		// 中身は次の書き込み前に quarantine で退避する
		s.log.Warn("record file is corrupted, treating as empty", zap.Error(err))
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (s *FileStore[T]) write(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []T{}
	}

	buf, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if err := s.quarantine(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", s.path, err)
	}
	return nil
}

// quarantine: 壊れた既存ファイルを <name>.corrupt-<ts> に退避してから上書きさせる。
// 空ファイルと存在しないファイルはそのまま
func (s *FileStore[T]) quarantine() error {
	buf, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil
	}
	var existing []T
	if json.Unmarshal(buf, &existing) == nil {
		return nil
	}

	dst := s.path + ".corrupt-" + time.Now().UTC().Format("20060102T150405.000000000")
	if err := os.Rename(s.path, dst); err != nil {
		return fmt.Errorf("quarantine %s: %w", s.path, err)
	}
	s.log.Warn("corrupted record file moved aside", zap.String("moved_to", dst))
	return nil
}
