package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportLog 导入记录
type ImportLog struct {
	ID           int64      `json:"id"`
	BatchID      string     `json:"batchId"`
	Tenant       int64      `json:"tenant"`
	Filename     string     `json:"filename"`
	FileSize     int64      `json:"fileSize"`
	Layout       string     `json:"layout"`
	TotalRows    int        `json:"totalRows"`
	SkippedRows  int        `json:"skippedRows"`
	Records      int        `json:"records"`
	Products     int        `json:"products"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// ImportLogResult 导入完成时回写的统计
type ImportLogResult struct {
	Layout       string
	TotalRows    int
	SkippedRows  int
	Records      int
	Products     int
	Status       string // imported/empty/error
	ErrorMessage string
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, batchID string, tenant int64, filename string, fileSize int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (batch_id, tenant, filename, file_size, status)
		VALUES (?, ?, ?, ?, 'processing')
	`, batchID, tenant, filename, fileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(ctx context.Context, id int64, r ImportLogResult) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			layout = ?,
			total_rows = ?,
			skipped_rows = ?,
			records = ?,
			products = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.Layout, r.TotalRows, r.SkippedRows, r.Records, r.Products, r.Status, r.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// LastImport 返回租户最近一次导入；没有时返回 nil
func (s *Store) LastImport(ctx context.Context, tenant int64) (*ImportLog, error) {
	var (
		l           ImportLog
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, batch_id, tenant, filename, file_size, layout, total_rows, skipped_rows,
			records, products, status, error_message, created_at, completed_at
		FROM import_logs
		WHERE tenant = ?
		ORDER BY id DESC
		LIMIT 1
	`, tenant).Scan(
		&l.ID, &l.BatchID, &l.Tenant, &l.Filename, &l.FileSize, &l.Layout, &l.TotalRows, &l.SkippedRows,
		&l.Records, &l.Products, &l.Status, &l.ErrorMessage, &l.CreatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last import failed: %w", err)
	}
	if completedAt.Valid {
		l.CompletedAt = &completedAt.Time
	}
	return &l, nil
}
