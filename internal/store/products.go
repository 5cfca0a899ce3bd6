package store

import (
	"context"
	"fmt"
	"strings"
)

// Product 商品
type Product struct {
	ID         int64  `json:"product_id"`
	Name       string `json:"product_name"`
	ExternalID string `json:"external_id,omitempty"` // 仅按编号导入的商品有值
}

// TenantKeyByID 按外部编号生成带租户前缀的商品键
func TenantKeyByID(tenant int64, externalID string) string {
	return fmt.Sprintf("u%d::%s", tenant, externalID)
}

// TenantKeyByName 按商品名称生成带租户前缀的商品键
func TenantKeyByName(tenant int64, name string) string {
	return fmt.Sprintf("u%d__NAME__%s", tenant, name)
}

// externalIDFromKey 从带租户前缀的键中取回外部编号；按名称生成的键返回空串
func externalIDFromKey(tenant int64, key string) string {
	prefix := TenantKeyByID(tenant, "")
	if strings.HasPrefix(key, prefix) {
		return key[len(prefix):]
	}
	return ""
}

// ownedClause 返回“商品属于该租户”的 SQL 条件及参数
func ownedClause(tenant int64) (string, []interface{}) {
	byID := TenantKeyByID(tenant, "")
	byName := TenantKeyByName(tenant, "")
	return "(substr(external_id, 1, ?) = ? OR substr(external_id, 1, ?) = ?)",
		[]interface{}{len(byID), byID, len(byName), byName}
}

func inClause(ids []int64) (string, []interface{}) {
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	return "(" + strings.Join(placeholders, ",") + ")", args
}

// ResolveProduct 按带前缀的键查找商品，不存在则创建
// 已存在且新名称非空时更新名称（按编号导入的商品允许改名）。
func (s *Store) ResolveProduct(ctx context.Context, key, name string) (int64, error) {
	return resolveProduct(ctx, s.db, key, name)
}

// resolveProduct 单条 upsert 语句完成查找与创建，并发解析同一键不会撞上唯一约束
func resolveProduct(ctx context.Context, q querier, key, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO products (product_name, external_id) VALUES (?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			product_name = CASE WHEN excluded.product_name <> '' THEN excluded.product_name ELSE products.product_name END
		RETURNING product_id
	`, name, key).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve product %q: %w", key, err)
	}
	return id, nil
}

// ListProducts 列出租户的全部商品（按 product_id 升序）
func (s *Store) ListProducts(ctx context.Context, tenant int64) ([]Product, error) {
	where, args := ownedClause(tenant)
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id, product_name, external_id FROM products WHERE "+where+" ORDER BY product_id", args...)
	if err != nil {
		return nil, fmt.Errorf("query products failed: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var (
			p   Product
			key string
		)
		if err := rows.Scan(&p.ID, &p.Name, &key); err != nil {
			return nil, fmt.Errorf("scan product failed: %w", err)
		}
		p.ExternalID = externalIDFromKey(tenant, key)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products failed: %w", err)
	}
	return out, nil
}

// CountProducts 统计租户的商品数量
func (s *Store) CountProducts(ctx context.Context, tenant int64) (int, error) {
	where, args := ownedClause(tenant)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM products WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products failed: %w", err)
	}
	return n, nil
}

// OwnedProductIDs 过滤出属于该租户的商品 ID
func (s *Store) OwnedProductIDs(ctx context.Context, tenant int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where, args := ownedClause(tenant)
	in, inArgs := inClause(ids)
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id FROM products WHERE product_id IN "+in+" AND "+where+" ORDER BY product_id",
		append(inArgs, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query owned products failed: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id failed: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteProducts 删除租户的商品及其日度数据；ids 为空时删除该租户全部商品
// 不属于该租户的 ID 被忽略。返回实际删除的商品数。
func (s *Store) DeleteProducts(ctx context.Context, tenant int64, ids []int64) (int, error) {
	var targets []int64
	if len(ids) > 0 {
		owned, err := s.OwnedProductIDs(ctx, tenant, ids)
		if err != nil {
			return 0, err
		}
		targets = owned
	} else {
		all, err := s.ListProducts(ctx, tenant)
		if err != nil {
			return 0, err
		}
		for _, p := range all {
			targets = append(targets, p.ID)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	in, args := inClause(targets)
	if _, err := tx.ExecContext(ctx, "DELETE FROM daily_facts WHERE product_id IN "+in, args...); err != nil {
		return 0, fmt.Errorf("failed to delete daily facts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE product_id IN "+in, args...); err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(targets), nil
}
