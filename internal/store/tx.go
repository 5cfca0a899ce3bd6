package store

import (
	"context"
	"database/sql"
	"fmt"
)

// querier *sql.DB 与 *sql.Tx 共有的查询方法
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// FactWriter 导入写入商品与日度数据所需的操作
type FactWriter interface {
	ResolveProduct(ctx context.Context, key, name string) (int64, error)
	UpsertDailyFact(ctx context.Context, r DailyFactRow) error
}

type txWriter struct {
	tx *sql.Tx
}

func (w txWriter) ResolveProduct(ctx context.Context, key, name string) (int64, error) {
	return resolveProduct(ctx, w.tx, key, name)
}

func (w txWriter) UpsertDailyFact(ctx context.Context, r DailyFactRow) error {
	return upsertDailyFact(ctx, w.tx, r)
}

// WithinTx 在同一个事务内执行 fn；fn 返回错误或 ctx 取消时整体回滚
// 连接池只有一个连接，fn 内不能再调用 Store 自身的方法。
func (s *Store) WithinTx(ctx context.Context, fn func(w FactWriter) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txWriter{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
