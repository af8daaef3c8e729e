// Package recordstore は「レコード配列を丸ごと読んで、丸ごと書く」ストアの抽象。
// 既定は JSON ファイル1本、設定で SQL（mysql / sqlite3）に差し替えられる。
package recordstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

// Record は一意キーを持つレコード
type Record interface {
	RecordKey() string
}

type Store[T Record] interface {
	Name() string
	// ReadAll: 永続化された順で全件。ファイル無し・空・壊れている場合は空スライス
	ReadAll(ctx context.Context) ([]T, error)
	// WriteAll: 全件で上書き
	WriteAll(ctx context.Context, records []T) error
	// Update: 読み→fn→書き を直列化して行う。fn がエラーなら何も書かない
	Update(ctx context.Context, fn func(records []T) ([]T, error)) error
}

// Append: 読んで末尾に足して書く（重複排除はしない）
func Append[T Record](ctx context.Context, s Store[T], records ...T) error {
	if len(records) == 0 {
		return nil
	}
	return s.Update(ctx, func(all []T) ([]T, error) {
		return append(all, records...), nil
	})
}

func FindByID[T Record](ctx context.Context, s Store[T], id string) (T, error) {
	var zero T
	all, err := s.ReadAll(ctx)
	if err != nil {
		return zero, err
	}
	for _, r := range all {
		if r.RecordKey() == id {
			return r, nil
		}
	}
	return zero, ErrNotFound
}

// Filter: pred に合うものを順序を保って返す
func Filter[T Record](ctx context.Context, s Store[T], pred func(T) bool) ([]T, error) {
	all, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, r := range all {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// IndexOf はキーの位置を返す。無ければ -1
func IndexOf[T Record](records []T, id string) int {
	for i, r := range records {
		if r.RecordKey() == id {
			return i
		}
	}
	return -1
}
