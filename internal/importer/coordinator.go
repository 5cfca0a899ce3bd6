package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"retaildash/internal/parser"
	"retaildash/internal/store"
)

// Store 导入所需的持久化能力
// 商品与日度数据在 WithinTx 内写入，一次导入要么全部生效要么全部回滚。
type Store interface {
	WithinTx(ctx context.Context, fn func(w store.FactWriter) error) error
	CreateImportLog(ctx context.Context, batchID string, tenant int64, filename string, fileSize int64) (int64, error)
	FinishImportLog(ctx context.Context, id int64, r store.ImportLogResult) error
}

// Coordinator 导入协调器
type Coordinator struct {
	store       Store
	logger      *zap.Logger
	concurrency int
}

// NewCoordinator 创建导入协调器；concurrency 为并发写入上限
func NewCoordinator(st Store, logger *zap.Logger, concurrency int) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Coordinator{store: st, logger: logger, concurrency: concurrency}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Tenant   int64
	Filename string
	Data     []byte
}

// 导入状态
const (
	StatusImported = "imported"
	StatusEmpty    = "empty"
	StatusError    = "error"
)

// ImportReport 导入报告
type ImportReport struct {
	BatchID     string        `json:"batchId"`
	Filename    string        `json:"filename"`
	Status      string        `json:"status"`
	Layout      string        `json:"layout,omitempty"`
	Days        []int         `json:"days,omitempty"`
	TotalRows   int           `json:"totalRows"`
	SkippedRows int           `json:"skippedRows"`
	Records     int           `json:"records"`
	Products    int           `json:"products"`
	Duplicates  []string      `json:"duplicateHeaders,omitempty"`
	Duration    time.Duration `json:"-"`
	DurationMs  int64         `json:"durationMs"`
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/parsed/products/progress/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`

	// Err 仅 error 事件携带，供调用方按错误类型处理
	Err error `json:"-"`
}

// Import 异步执行导入，返回进度通道；通道在导入结束后关闭
// 最后一个事件总是 done 或 error。
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)

		emit := func(evt ProgressEvent) {
			select {
			case progressChan <- evt:
			default:
				// 通道已满，丢弃中间进度
			}
		}
		report, err := c.run(ctx, opts, emit)

		final := ProgressEvent{Type: "done", Message: "导入完成", Data: report, Timestamp: time.Now()}
		if err != nil {
			final = ProgressEvent{Type: "error", Message: err.Error(), Timestamp: time.Now(), Err: err}
		}
		select {
		case progressChan <- final:
		case <-ctx.Done():
		}
	}()

	return progressChan
}

// Run 同步执行导入
func (c *Coordinator) Run(ctx context.Context, opts ImportOptions) (*ImportReport, error) {
	return c.run(ctx, opts, func(ProgressEvent) {})
}

func (c *Coordinator) run(ctx context.Context, opts ImportOptions, emit func(ProgressEvent)) (*ImportReport, error) {
	startTime := time.Now()
	report := &ImportReport{
		BatchID:  uuid.NewString(),
		Filename: opts.Filename,
	}
	log := c.logger.With(
		zap.String("batch_id", report.BatchID),
		zap.Int64("tenant", opts.Tenant),
		zap.String("filename", opts.Filename),
	)

	emit(ProgressEvent{
		Type:      "start",
		Message:   "开始导入",
		Data:      map[string]interface{}{"batchId": report.BatchID, "filename": opts.Filename, "size": len(opts.Data)},
		Timestamp: time.Now(),
	})

	logID, err := c.store.CreateImportLog(ctx, report.BatchID, opts.Tenant, opts.Filename, int64(len(opts.Data)))
	if err != nil {
		log.Error("import: create log failed", zap.Error(err))
		return nil, err
	}

	finish := func(status string, cause error) {
		report.Status = status
		report.Duration = time.Since(startTime)
		report.DurationMs = report.Duration.Milliseconds()
		res := store.ImportLogResult{
			Layout:      report.Layout,
			TotalRows:   report.TotalRows,
			SkippedRows: report.SkippedRows,
			Records:     report.Records,
			Products:    report.Products,
			Status:      status,
		}
		if cause != nil {
			res.ErrorMessage = cause.Error()
		}
		// 导入本身可能已被取消，日志回写不跟随
		if err := c.store.FinishImportLog(context.WithoutCancel(ctx), logID, res); err != nil {
			log.Warn("import: finish log failed", zap.Error(err))
		}
	}

	facts, parsed, err := parser.ParseWithReport(opts.Data)
	if errors.Is(err, parser.ErrEmptySheet) {
		finish(StatusEmpty, nil)
		log.Info("import: empty sheet")
		return report, nil
	}
	if err != nil {
		finish(StatusError, err)
		log.Warn("import: parse failed", zap.Error(err))
		return nil, err
	}

	report.Layout = string(parsed.Layout)
	report.Days = parsed.Days
	report.TotalRows = parsed.TotalRows
	report.SkippedRows = parsed.SkippedRows
	report.Duplicates = parsed.Duplicates

	emit(ProgressEvent{
		Type:      "parsed",
		Message:   fmt.Sprintf("解析完成: %s 布局, %d 行, %d 条记录", parsed.Layout, parsed.TotalRows, len(facts)),
		Data:      parsed,
		Timestamp: time.Now(),
	})

	var written int
	err = c.store.WithinTx(ctx, func(w store.FactWriter) error {
		productIDs, err := c.resolveProducts(ctx, w, opts.Tenant, facts)
		if err != nil {
			return err
		}
		report.Products = len(productIDs)

		emit(ProgressEvent{
			Type:      "products",
			Message:   fmt.Sprintf("商品就绪: %d 个", len(productIDs)),
			Data:      map[string]int{"products": len(productIDs)},
			Timestamp: time.Now(),
		})

		written, err = c.upsertFacts(ctx, w, opts.Tenant, facts, productIDs, emit)
		return err
	})
	if err != nil {
		// 事务已回滚，本次导入没有留下任何数据
		report.Products = 0
		finish(StatusError, err)
		log.Error("import: write failed, rolled back", zap.Int("written", written), zap.Error(err))
		return nil, err
	}
	report.Records = written

	finish(StatusImported, nil)
	log.Info("import: done",
		zap.String("layout", report.Layout),
		zap.Int("rows", report.TotalRows),
		zap.Int("records", report.Records),
		zap.Int("products", report.Products),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// productKey 返回事实对应的带租户前缀的商品键
func productKey(tenant int64, f parser.DailyFact) string {
	if f.ExternalID != nil {
		return store.TenantKeyByID(tenant, *f.ExternalID)
	}
	return store.TenantKeyByName(tenant, f.ProductName)
}

// resolveProducts 按首次出现顺序逐个解析商品键，返回 键 -> product_id
// 商品名取该键第一次出现时的名称。
func (c *Coordinator) resolveProducts(ctx context.Context, w store.FactWriter, tenant int64, facts []parser.DailyFact) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, f := range facts {
		key := productKey(tenant, f)
		if _, ok := ids[key]; ok {
			continue
		}
		id, err := w.ResolveProduct(ctx, key, f.ProductName)
		if err != nil {
			return nil, err
		}
		ids[key] = id
	}
	return ids, nil
}

// upsertFacts 并发写入日度事实
// 同一 (商品, 日期) 的记录归入同一序列按原顺序写入，后写覆盖先写。
func (c *Coordinator) upsertFacts(ctx context.Context, w store.FactWriter, tenant int64, facts []parser.DailyFact, productIDs map[string]int64, emit func(ProgressEvent)) (int, error) {
	type slot struct {
		productID int64
		date      string
	}
	var (
		order  []slot
		chains = make(map[slot][]store.DailyFactRow)
	)
	for _, f := range facts {
		row := store.DailyFactRow{
			Date:       f.DateString(),
			OpenInv:    f.OpenInv,
			ProcQty:    f.ProcQty,
			ProcPrice:  f.ProcPrice,
			SalesQty:   f.SalesQty,
			SalesPrice: f.SalesPrice,
		}
		row.ProductID = productIDs[productKey(tenant, f)]
		k := slot{productID: row.ProductID, date: row.Date}
		if _, ok := chains[k]; !ok {
			order = append(order, k)
		}
		chains[k] = append(chains[k], row)
	}

	total := len(facts)
	counter := newProgressCounter(total, emit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, k := range order {
		rows := chains[k]
		g.Go(func() error {
			for _, r := range rows {
				if err := w.UpsertDailyFact(gctx, r); err != nil {
					return err
				}
				counter.add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return counter.value(), err
}
