package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Connect: storage.driver に応じて接続を開く（file の場合は呼ばない）
func Connect(c StorageConfig) (*sql.DB, error) {
	dsn := c.DSN
	if c.Driver == DriverMySQL && dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
			c.DB.Username, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.DBName)
	}

	db, err := sql.Open(c.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("接続準備に失敗: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("DB接続に失敗: %w", err)
	}

	if c.Driver == DriverSQLite {
		// SQLite は書き込みが1本なので接続も1本に絞る
		db.SetMaxOpenConns(1)
		return db, nil
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
