package parser

// Parse 解析电子表格字节为标准日度事实列表。
// 任一行出错即整体失败，不返回部分结果；ErrEmptySheet 原样返回，由调用方按空结果处理。
func Parse(data []byte) ([]DailyFact, error) {
	facts, _, err := ParseWithReport(data)
	return facts, err
}

// ParseWithReport 同 Parse，并返回解析摘要
func ParseWithReport(data []byte) ([]DailyFact, *ParseReport, error) {
	sheet, err := ReadSheet(data)
	if err != nil {
		return nil, nil, err
	}

	classification, err := Classify(sheet.Headers)
	if err != nil {
		return nil, nil, err
	}

	report := &ParseReport{
		SheetName:  sheet.Name,
		Layout:     classification.Layout,
		Days:       classification.Days,
		TotalRows:  len(sheet.Rows),
		Duplicates: classification.Duplicates,
	}

	perRow := make([][]DailyFact, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		facts, err := ExpandRow(row, classification)
		if err != nil {
			return nil, nil, err
		}
		if len(facts) == 0 {
			report.SkippedRows++
			continue
		}
		perRow = append(perRow, facts)
	}

	out := Assemble(perRow)
	report.Records = len(out)
	return out, report, nil
}
