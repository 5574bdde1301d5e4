package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteStore 是 OutputStore 接口的 SQLite 实现
type sqliteStore struct {
	db     *sql.DB
	logger *log.Logger
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS processed_outputs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		output TEXT NOT NULL UNIQUE,
		fingerprint TEXT NOT NULL,
		status TEXT NOT NULL,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

const upsertSQL = `
	INSERT INTO processed_outputs (output, fingerprint, status, processed_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(output) DO UPDATE SET
		fingerprint = excluded.fingerprint,
		status = excluded.status,
		processed_at = excluded.processed_at
	`

// NewSQLiteStore 初始化 SQLite 数据库并返回 OutputStore 接口实例
func NewSQLiteStore(dataSourceName string, logger *log.Logger) (OutputStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// 工作协程会并发写入，SQLite 同一时间只允许一个写连接
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close() // 创建表失败也要关闭连接
		return nil, fmt.Errorf("failed to create processed_outputs table: %w", err)
	}
	logger.Printf("SQLite database initialized at: %s", dataSourceName)
	return &sqliteStore{db: db, logger: logger}, nil
}

// Close 关闭数据库连接
func (s *sqliteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.logger.Println("SQLite database connection closed.")
		return err
	}
	return nil
}

// RecordOutput 记录一次输出，同一输出路径只保留最新的一条
func (s *sqliteStore) RecordOutput(output, fingerprint, status string) error {
	_, err := s.db.Exec(upsertSQL, output, fingerprint, status, time.Now().UTC())
	if err != nil {
		s.logger.Printf("ERROR: Failed to record output %s: %v", output, err)
		return fmt.Errorf("failed to record output %s: %w", output, err)
	}
	return nil
}

// IsOutputCurrent 检查输出是否已由相同指纹成功生成
func (s *sqliteStore) IsOutputCurrent(output, fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM processed_outputs WHERE output = ? AND fingerprint = ? AND status = 'ok'",
		output, fingerprint,
	).Scan(&count)
	if err != nil {
		s.logger.Printf("ERROR: Failed to check output %s: %v", output, err)
		return false, fmt.Errorf("failed to check output %s: %w", output, err)
	}
	return count > 0, nil
}

// RecentOutputs 按处理时间倒序返回最近 limit 条记录
func (s *sqliteStore) RecentOutputs(limit int) ([]OutputRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		"SELECT output, fingerprint, status, processed_at FROM processed_outputs ORDER BY processed_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent outputs: %w", err)
	}
	defer rows.Close()

	var records []OutputRecord
	for rows.Next() {
		var r OutputRecord
		if err := rows.Scan(&r.Output, &r.Fingerprint, &r.Status, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan output record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
