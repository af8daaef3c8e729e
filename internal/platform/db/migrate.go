package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"MediaLoan-backend/internal/platform/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate は埋め込みのマイグレーションを適用する。driver は mysql / sqlite3
func Migrate(ctx context.Context, conn *sql.DB, driver string, log *zap.Logger) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{logger.OrNop(log).Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverMySQL:
		return "mysql", nil
	case DriverSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("no migrations for driver %q", driver)
}

// goose.Logger を zap に流す
type gooseLogger struct{ s *zap.SugaredLogger }

func (l gooseLogger) Printf(format string, v ...any) { l.s.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.s.Fatalf(format, v...) }
