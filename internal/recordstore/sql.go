package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"MediaLoan-backend/internal/platform/db"
	"MediaLoan-backend/internal/platform/logger"
	"MediaLoan-backend/internal/platform/metrics"
)

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLStore はテーブル1つに JSON ドキュメントを seq 順で持つ Store。
// mysql / sqlite3 のどちらでも動く SQL だけを使う
type SQLStore[T Record] struct {
	name  string
	table string
	db    *sql.DB
	mu    sync.Mutex
	log   *zap.Logger
}

var _ Store[Record] = (*SQLStore[Record])(nil)

// NewSQLStore: テーブルは db.Migrate で作成済みであること
func NewSQLStore[T Record](conn *sql.DB, name, table string, log *zap.Logger) (*SQLStore[T], error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	return &SQLStore[T]{
		name:  name,
		table: table,
		db:    conn,
		log:   logger.OrNop(log).With(zap.String("store", name), zap.String("table", table)),
	}, nil
}

func (s *SQLStore[T]) Name() string { return s.name }

func (s *SQLStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	records, err := s.read(ctx, s.db)
	metrics.ObserveStore(s.name, "read", err)
	return records, err
}

func (s *SQLStore[T]) WriteAll(ctx context.Context, records []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := db.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.replace(ctx, tx, records)
	})
	metrics.ObserveStore(s.name, "write", err)
	return err
}

func (s *SQLStore[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fnErr error
	err := db.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		records, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		out, err := fn(records)
		if err != nil {
			fnErr = err
			return err
		}
		return s.replace(ctx, tx, out)
	})
	if fnErr != nil {
		return fnErr
	}
	metrics.ObserveStore(s.name, "update", err)
	return err
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLStore[T]) read(ctx context.Context, q querier) ([]T, error) {
	rows, err := q.QueryContext(ctx, `SELECT record_key, doc FROM `+s.table+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.table, err)
	}
	defer rows.Close()

	records := make([]T, 0, 64)
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			// 壊れた行は読み飛ばす（ファイル版の「壊れていたら空」に合わせる）
			s.log.Warn("skipping undecodable row", zap.String("record_key", key), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", s.table, err)
	}
	return records, nil
}

func (s *SQLStore[T]) replace(ctx context.Context, tx *sql.Tx, records []T) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.table); err != nil {
		return fmt.Errorf("delete %s: %w", s.table, err)
	}
	ins := `INSERT INTO ` + s.table + ` (record_key, seq, doc) VALUES (?, ?, ?)`
	for i, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode %s: %w", s.name, err)
		}
		if _, err := tx.ExecContext(ctx, ins, r.RecordKey(), i, string(doc)); err != nil {
			return fmt.Errorf("insert %s: %w", s.table, err)
		}
	}
	return nil
}
