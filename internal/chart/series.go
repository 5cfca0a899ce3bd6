package chart

import (
	"sort"

	"github.com/shopspring/decimal"

	"retaildash/internal/store"
)

// amountPlaces 金额保留的小数位
const amountPlaces = 4

// Point 图表上的一天
type Point struct {
	Day         int     `json:"day"`
	Procurement float64 `json:"procurement"` // 采购额 = 数量 × 单价
	Sales       float64 `json:"sales"`       // 销售额 = 数量 × 单价
	Inventory   float64 `json:"inventory"`   // 期初库存
}

// Totals 商品在整个区间内的汇总
type Totals struct {
	Days          int     `json:"days"`
	Procurement   float64 `json:"procurement"`
	Sales         float64 `json:"sales"`
	LastInventory float64 `json:"lastInventory"`
}

// amount 以十进制计算 qty × price，避免二进制浮点误差
func amount(qty, price float64) decimal.Decimal {
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)).Round(amountPlaces)
}

// sortedByDate 返回按日期升序的副本；日期相同保持原顺序
func sortedByDate(rows []store.DailyFactRow) []store.DailyFactRow {
	out := make([]store.DailyFactRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ToSeries 把每个商品的日度数据转成图表序列；day 从 1 开始按日期排序编号
func ToSeries(byProduct map[int64][]store.DailyFactRow) map[int64][]Point {
	out := make(map[int64][]Point, len(byProduct))
	for pid, rows := range byProduct {
		sorted := sortedByDate(rows)
		points := make([]Point, 0, len(sorted))
		for i, r := range sorted {
			points = append(points, Point{
				Day:         i + 1,
				Procurement: amount(r.ProcQty, r.ProcPrice).InexactFloat64(),
				Sales:       amount(r.SalesQty, r.SalesPrice).InexactFloat64(),
				Inventory:   r.OpenInv,
			})
		}
		out[pid] = points
	}
	return out
}

// Summarize 汇总每个商品的采购额、销售额和最后一天的期初库存
func Summarize(byProduct map[int64][]store.DailyFactRow) map[int64]Totals {
	out := make(map[int64]Totals, len(byProduct))
	for pid, rows := range byProduct {
		proc, sales := decimal.Zero, decimal.Zero
		sorted := sortedByDate(rows)
		for _, r := range sorted {
			proc = proc.Add(amount(r.ProcQty, r.ProcPrice))
			sales = sales.Add(amount(r.SalesQty, r.SalesPrice))
		}
		t := Totals{
			Days:        len(sorted),
			Procurement: proc.InexactFloat64(),
			Sales:       sales.InexactFloat64(),
		}
		if len(sorted) > 0 {
			t.LastInventory = sorted[len(sorted)-1].OpenInv
		}
		out[pid] = t
	}
	return out
}
