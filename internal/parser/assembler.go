package parser

// Assemble 按“行 → 天”的顺序展平各行结果。
// 不去重、不重排：同一产品同一天出现多次时全部输出，由入库时的 upsert 决定最终值（后写覆盖）。
func Assemble(perRow [][]DailyFact) []DailyFact {
	total := 0
	for _, facts := range perRow {
		total += len(facts)
	}
	out := make([]DailyFact, 0, total)
	for _, facts := range perRow {
		out = append(out, facts...)
	}
	return out
}
