package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore 内存数据存储，语义与 sqlite 存储一致（用于试运行导入）
type MemoryStore struct {
	mu sync.RWMutex

	nextProductID int64
	nextFactID    int64
	products      map[int64]*memProduct
	byKey         map[string]int64
	facts         map[int64]map[string]DailyFactRow // product_id -> date -> row
	logs          []ImportLog
}

type memProduct struct {
	name string
	key  string
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]*memProduct),
		byKey:    make(map[string]int64),
		facts:    make(map[int64]map[string]DailyFactRow),
	}
}

// ResolveProduct 见 Store.ResolveProduct
func (s *MemoryStore) ResolveProduct(_ context.Context, key, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[key]; ok {
		if name != "" {
			s.products[id].name = name
		}
		return id, nil
	}
	s.nextProductID++
	id := s.nextProductID
	s.products[id] = &memProduct{name: name, key: key}
	s.byKey[key] = id
	return id, nil
}

// UpsertDailyFact 按 (product_id, date) 写入，已存在时保留原 ID
func (s *MemoryStore) UpsertDailyFact(_ context.Context, r DailyFactRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[r.ProductID]; !ok {
		return fmt.Errorf("failed to upsert daily fact (product %d, %s): unknown product", r.ProductID, r.Date)
	}
	byDate := s.facts[r.ProductID]
	if byDate == nil {
		byDate = make(map[string]DailyFactRow)
		s.facts[r.ProductID] = byDate
	}
	if prev, ok := byDate[r.Date]; ok {
		r.ID = prev.ID
	} else {
		s.nextFactID++
		r.ID = s.nextFactID
	}
	byDate[r.Date] = r
	return nil
}

// WithinTx 在状态副本上执行 fn，成功后整体替换；失败时原状态不变
// 执行期间持有写锁，其他读写等待。
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(w FactWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.cloneData()
	if err := fn(staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.nextProductID = staged.nextProductID
	s.nextFactID = staged.nextFactID
	s.products = staged.products
	s.byKey = staged.byKey
	s.facts = staged.facts
	return nil
}

// cloneData 复制商品与日度数据，不含导入日志
func (s *MemoryStore) cloneData() *MemoryStore {
	c := NewMemoryStore()
	c.nextProductID = s.nextProductID
	c.nextFactID = s.nextFactID
	for id, p := range s.products {
		cp := *p
		c.products[id] = &cp
	}
	for k, id := range s.byKey {
		c.byKey[k] = id
	}
	for id, byDate := range s.facts {
		m := make(map[string]DailyFactRow, len(byDate))
		for d, r := range byDate {
			m[d] = r
		}
		c.facts[id] = m
	}
	return c
}

func (s *MemoryStore) owned(tenant int64, id int64) bool {
	p, ok := s.products[id]
	if !ok {
		return false
	}
	return strings.HasPrefix(p.key, TenantKeyByID(tenant, "")) || strings.HasPrefix(p.key, TenantKeyByName(tenant, ""))
}

// ListProducts 见 Store.ListProducts
func (s *MemoryStore) ListProducts(_ context.Context, tenant int64) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Product{}
	for id, p := range s.products {
		if s.owned(tenant, id) {
			out = append(out, Product{ID: id, Name: p.name, ExternalID: externalIDFromKey(tenant, p.key)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListDailyFacts 见 Store.ListDailyFacts
func (s *MemoryStore) ListDailyFacts(_ context.Context, tenant int64, productIDs []int64) (map[int64][]DailyFactRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64][]DailyFactRow, len(productIDs))
	for _, id := range productIDs {
		rows := []DailyFactRow{}
		if s.owned(tenant, id) {
			for _, r := range s.facts[id] {
				rows = append(rows, r)
			}
			sort.Slice(rows, func(i, j int) bool {
				if rows[i].Date != rows[j].Date {
					return rows[i].Date < rows[j].Date
				}
				return rows[i].ID < rows[j].ID
			})
		}
		out[id] = rows
	}
	return out, nil
}

// CreateImportLog 见 Store.CreateImportLog
func (s *MemoryStore) CreateImportLog(_ context.Context, batchID string, tenant int64, filename string, fileSize int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := int64(len(s.logs) + 1)
	s.logs = append(s.logs, ImportLog{
		ID:        id,
		BatchID:   batchID,
		Tenant:    tenant,
		Filename:  filename,
		FileSize:  fileSize,
		Status:    "processing",
		CreatedAt: time.Now(),
	})
	return id, nil
}

// FinishImportLog 见 Store.FinishImportLog
func (s *MemoryStore) FinishImportLog(_ context.Context, id int64, r ImportLogResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id <= 0 || int(id) > len(s.logs) {
		return fmt.Errorf("failed to update import log: unknown id %d", id)
	}
	now := time.Now()
	l := &s.logs[id-1]
	l.Layout = r.Layout
	l.TotalRows = r.TotalRows
	l.SkippedRows = r.SkippedRows
	l.Records = r.Records
	l.Products = r.Products
	l.Status = r.Status
	l.ErrorMessage = r.ErrorMessage
	l.CompletedAt = &now
	return nil
}

// LastImport 见 Store.LastImport
func (s *MemoryStore) LastImport(_ context.Context, tenant int64) (*ImportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].Tenant == tenant {
			l := s.logs[i]
			return &l, nil
		}
	}
	return nil, nil
}
