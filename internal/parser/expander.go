package parser

import (
	"errors"
	"strings"
	"time"
)

// wideAnchorDate 宽表没提供起始日期时第 1 天对应的日期，所有上传共用
var wideAnchorDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// WideAnchorDate 返回宽表的默认基准日期
func WideAnchorDate() time.Time {
	return wideAnchorDate
}

// DayFlow 宽表某一天的流量
type DayFlow struct {
	Day        int
	ProcQty    float64
	ProcPrice  float64
	SalesQty   float64
	SalesPrice float64
}

// CarryInventory 按天数升序递推每天的期初库存：
// open[0] = opening；open[i] = open[i-1] + procQty[i-1] - salesQty[i-1]
func CarryInventory(opening float64, days []DayFlow) []float64 {
	out := make([]float64, len(days))
	for i := range days {
		if i == 0 {
			out[i] = opening
			continue
		}
		out[i] = out[i-1] + days[i-1].ProcQty - days[i-1].SalesQty
	}
	return out
}

// ExpandRow 将一行原始数据展开为日度事实；产品名为空的行返回空结果
func ExpandRow(row RawRow, c *Classification) ([]DailyFact, error) {
	nameCol, _ := c.Column(ColumnRole{Kind: RoleProductName})
	name := strings.TrimSpace(row.Cell(nameCol).Raw)
	if name == "" {
		return nil, nil
	}

	var externalID *string
	if idCol, ok := c.Column(ColumnRole{Kind: RoleIdentifier}); ok {
		if v := strings.TrimSpace(row.Cell(idCol).Raw); v != "" {
			externalID = &v
		}
	}

	if c.Layout == LayoutNarrow {
		fact, err := expandNarrow(row, c, name, externalID)
		if err != nil {
			return nil, err
		}
		return []DailyFact{fact}, nil
	}
	return expandWide(row, c, name, externalID)
}

func expandNarrow(row RawRow, c *Classification, name string, externalID *string) (DailyFact, error) {
	dateCol, _ := c.Column(ColumnRole{Kind: RoleDate})
	date, err := ToDate(row.Cell(dateCol))
	if err != nil {
		return DailyFact{}, withRowNo(err, row.RowNo)
	}

	return DailyFact{
		ProductName: name,
		ExternalID:  externalID,
		Date:        date,
		OpenInv:     ToNumber(row.Cell(c.OpeningColumn())),
		ProcQty:     flowValue(row, c, ProcurementQty, 0),
		ProcPrice:   flowValue(row, c, ProcurementPrice, 0),
		SalesQty:    flowValue(row, c, SalesQty, 0),
		SalesPrice:  flowValue(row, c, SalesPrice, 0),
	}, nil
}

func expandWide(row RawRow, c *Classification, name string, externalID *string) ([]DailyFact, error) {
	anchor := wideAnchorDate
	if col, ok := c.Column(ColumnRole{Kind: RoleStartDate}); ok {
		if cell := row.Cell(col); !cell.IsEmpty() {
			d, err := ToDate(cell)
			if err != nil {
				return nil, withRowNo(err, row.RowNo)
			}
			anchor = d
		}
	}

	flows := make([]DayFlow, len(c.Days))
	for i, day := range c.Days {
		flows[i] = DayFlow{
			Day:        day,
			ProcQty:    flowValue(row, c, ProcurementQty, day),
			ProcPrice:  flowValue(row, c, ProcurementPrice, day),
			SalesQty:   flowValue(row, c, SalesQty, day),
			SalesPrice: flowValue(row, c, SalesPrice, day),
		}
	}
	inventory := CarryInventory(ToNumber(row.Cell(c.OpeningColumn())), flows)

	out := make([]DailyFact, 0, len(flows))
	for i, f := range flows {
		out = append(out, DailyFact{
			ProductName: name,
			ExternalID:  externalID,
			Date:        AddDays(anchor, f.Day-1),
			OpenInv:     inventory[i],
			ProcQty:     f.ProcQty,
			ProcPrice:   f.ProcPrice,
			SalesQty:    f.SalesQty,
			SalesPrice:  f.SalesPrice,
		})
	}
	return out, nil
}

// flowValue 读取某天某流量列；列不存在时为 0
func flowValue(row RawRow, c *Classification, flow Flow, day int) float64 {
	col, ok := c.Column(ColumnRole{Kind: RoleFlow, Flow: flow, Day: day})
	if !ok {
		return 0
	}
	return ToNumber(row.Cell(col))
}

func withRowNo(err error, rowNo int) error {
	var de *InvalidDateError
	if errors.As(err, &de) {
		de.RowNo = rowNo
	}
	return err
}
