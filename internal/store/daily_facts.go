package store

import (
	"context"
	"fmt"
)

// DailyFactRow daily_facts 表的一行
type DailyFactRow struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Date       string  `json:"date"` // YYYY-MM-DD
	OpenInv    float64 `json:"open_inv"`
	ProcQty    float64 `json:"proc_qty"`
	ProcPrice  float64 `json:"proc_price"`
	SalesQty   float64 `json:"sales_qty"`
	SalesPrice float64 `json:"sales_price"`
}

// UpsertDailyFact 按 (product_id, date) 写入；冲突时覆盖全部数值字段
func (s *Store) UpsertDailyFact(ctx context.Context, r DailyFactRow) error {
	return upsertDailyFact(ctx, s.db, r)
}

func upsertDailyFact(ctx context.Context, q querier, r DailyFactRow) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO daily_facts (product_id, date, open_inv, proc_qty, proc_price, sales_qty, sales_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, date) DO UPDATE SET
			open_inv = excluded.open_inv,
			proc_qty = excluded.proc_qty,
			proc_price = excluded.proc_price,
			sales_qty = excluded.sales_qty,
			sales_price = excluded.sales_price
	`, r.ProductID, r.Date, r.OpenInv, r.ProcQty, r.ProcPrice, r.SalesQty, r.SalesPrice)
	if err != nil {
		return fmt.Errorf("failed to upsert daily fact (product %d, %s): %w", r.ProductID, r.Date, err)
	}
	return nil
}

// ListDailyFacts 按商品分组返回日度数据（日期升序）
// 每个请求的 ID 都有对应条目；不属于该租户或没有数据的为空列表。
func (s *Store) ListDailyFacts(ctx context.Context, tenant int64, productIDs []int64) (map[int64][]DailyFactRow, error) {
	out := make(map[int64][]DailyFactRow, len(productIDs))
	for _, id := range productIDs {
		out[id] = []DailyFactRow{}
	}

	owned, err := s.OwnedProductIDs(ctx, tenant, productIDs)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return out, nil
	}

	in, args := inClause(owned)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, date, open_inv, proc_qty, proc_price, sales_qty, sales_price
		FROM daily_facts
		WHERE product_id IN `+in+`
		ORDER BY date, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily facts failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r DailyFactRow
		if err := rows.Scan(&r.ID, &r.ProductID, &r.Date, &r.OpenInv, &r.ProcQty, &r.ProcPrice, &r.SalesQty, &r.SalesPrice); err != nil {
			return nil, fmt.Errorf("scan daily fact failed: %w", err)
		}
		out[r.ProductID] = append(out[r.ProductID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily facts failed: %w", err)
	}
	return out, nil
}
