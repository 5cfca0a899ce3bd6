package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// headerRule 角色判定规则：对规范化表头求值，命中即返回角色
type headerRule struct {
	name  string
	match func(normalized, raw string) (ColumnRole, bool)
}

var (
	openingRe   = regexp.MustCompile(`^(?:day(\d+))?openinginventory(?:on)?(?:day(\d+))?$`)
	flowRe      = regexp.MustCompile(`^(?:day\d+|d\d+)?(procurement|sales)(qty|price)`)
	dayTokenRe  = regexp.MustCompile(`day(\d+)`)
	dTokenRe    = regexp.MustCompile(`(?:^|qty|price)d(\d+)`)
	trailingRe  = regexp.MustCompile(`(\d+)$`)
	cnOrdinalRe = regexp.MustCompile(`第\s*(\d+)\s*[天日]`)
)

// unitSuffixes 窄表流量列允许的单位后缀，按数量/价格区分
// "units" 在规范化时已折叠为 "qty"。
var unitSuffixes = map[string]map[string]bool{
	"qty": {
		"qty": true, "pcs": true, "pc": true, "pieces": true, "items": true,
		"ea": true, "kg": true, "件": true, "个": true, "箱": true,
	},
	"price": {
		"usd": true, "eur": true, "gbp": true, "cny": true, "rmb": true,
		"yuan": true, "元": true,
	},
}

// headerRules 按顺序求值，第一条命中的规则生效，不回溯
var headerRules = []headerRule{
	{"identifier", exactRole("id|productid", ColumnRole{Kind: RoleIdentifier})},
	{"product_name", exactRole("productname", ColumnRole{Kind: RoleProductName})},
	{"start_date", exactRole("startdate", ColumnRole{Kind: RoleStartDate})},
	{"date", exactRole("date", ColumnRole{Kind: RoleDate})},
	{"opening_inventory", matchOpeningInventory},
	{"flow", matchFlow},
}

func exactRole(alternatives string, role ColumnRole) func(string, string) (ColumnRole, bool) {
	set := strings.Split(alternatives, "|")
	return func(normalized, _ string) (ColumnRole, bool) {
		for _, s := range set {
			if normalized == s {
				return role, true
			}
		}
		return ColumnRole{}, false
	}
}

// matchOpeningInventory 期初库存：不带天数或第 1 天；其他天数由递推得到，列被忽略
func matchOpeningInventory(normalized, _ string) (ColumnRole, bool) {
	m := openingRe.FindStringSubmatch(normalized)
	if m == nil {
		return ColumnRole{}, false
	}
	day := 0
	for _, g := range m[1:] {
		if g != "" {
			day, _ = strconv.Atoi(g)
		}
	}
	if day > 1 {
		return ColumnRole{}, false
	}
	return ColumnRole{Kind: RoleOpeningInventory, Day: day}, true
}

// matchFlow 采购/销售 × 数量/价格，附带天数
func matchFlow(normalized, raw string) (ColumnRole, bool) {
	loc := flowRe.FindStringSubmatchIndex(normalized)
	if loc == nil {
		return ColumnRole{}, false
	}
	flow := flowOf(normalized[loc[2]:loc[3]], normalized[loc[4]:loc[5]])

	day, found := ExtractDay(normalized, raw)
	if !found {
		// 不带天数的流量列只接受完全匹配或单位后缀（窄表用）
		suffix := normalized[loc[1]:]
		if suffix != "" && !unitSuffixes[normalized[loc[4]:loc[5]]][suffix] {
			return ColumnRole{}, false
		}
		return ColumnRole{Kind: RoleFlow, Flow: flow}, true
	}
	if day < 1 {
		return ColumnRole{}, false
	}
	return ColumnRole{Kind: RoleFlow, Flow: flow, Day: day}, true
}

func flowOf(subject, measure string) Flow {
	switch {
	case subject == "procurement" && measure == "qty":
		return ProcurementQty
	case subject == "procurement":
		return ProcurementPrice
	case measure == "qty":
		return SalesQty
	default:
		return SalesPrice
	}
}

// ExtractDay 从规范化表头提取天数，依次尝试：
// 内嵌 dayN；紧邻字段词的 dN；数量/价格表头末尾的数字；原始表头中的“第N天/日”。
// 第一个命中的模式生效。
func ExtractDay(normalized, raw string) (int, bool) {
	if m := dayTokenRe.FindStringSubmatch(normalized); m != nil {
		return atoiDay(m[1])
	}
	if m := dTokenRe.FindStringSubmatch(normalized); m != nil {
		return atoiDay(m[1])
	}
	if flowRe.MatchString(normalized) {
		if m := trailingRe.FindStringSubmatch(normalized); m != nil {
			return atoiDay(m[1])
		}
	}
	if m := cnOrdinalRe.FindStringSubmatch(raw); m != nil {
		return atoiDay(m[1])
	}
	return 0, false
}

func atoiDay(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ClassifyHeader 对单个表头求角色；无法识别返回 RoleNone
func ClassifyHeader(header string) ColumnRole {
	return ExplainHeader(header).Role
}

// HeaderExplanation 单个表头的分类过程
type HeaderExplanation struct {
	Header     string     `json:"header"`
	Normalized string     `json:"normalized"`
	Rule       string     `json:"rule,omitempty"`
	Role       ColumnRole `json:"-"`
	RoleName   string     `json:"role"`
}

// ExplainHeader 返回规范化结果与命中的规则，供排查表头问题
func ExplainHeader(header string) HeaderExplanation {
	out := HeaderExplanation{Header: header, Normalized: NormalizeHeader(header), RoleName: "-"}
	if out.Normalized == "" {
		return out
	}
	for _, rule := range headerRules {
		if role, ok := rule.match(out.Normalized, header); ok {
			out.Rule = rule.name
			out.Role = role
			out.RoleName = role.String()
			return out
		}
	}
	return out
}

// Classification 表头分类结果
type Classification struct {
	Layout     LayoutMode
	Headers    []string
	Roles      []ColumnRole // 与 Headers 一一对应
	Days       []int        // 宽表：升序去重的天数
	Duplicates []string     // 因角色已被占用而忽略的表头

	slots      map[ColumnRole]int
	openingCol int
}

// Column 返回某角色对应的列索引
func (c *Classification) Column(role ColumnRole) (int, bool) {
	idx, ok := c.slots[role]
	return idx, ok
}

// OpeningColumn 第 1 天期初库存所在列；-1 表示没有
func (c *Classification) OpeningColumn() int {
	return c.openingCol
}

// RoleMap 表头 → 角色（仅包含生效的列）
func (c *Classification) RoleMap() map[string]ColumnRole {
	out := make(map[string]ColumnRole, len(c.slots))
	for role, idx := range c.slots {
		out[c.Headers[idx]] = role
	}
	return out
}

// Classify 对整行表头分类并判定布局
func Classify(headers []string) (*Classification, error) {
	c := &Classification{
		Headers:    headers,
		Roles:      make([]ColumnRole, len(headers)),
		slots:      make(map[ColumnRole]int),
		openingCol: -1,
	}

	for idx, h := range headers {
		role := ClassifyHeader(h)
		if role.Kind == RoleNone {
			continue
		}
		// 同一角色出现多次时保留第一列
		if _, taken := c.slots[role]; taken {
			c.Duplicates = append(c.Duplicates, h)
			continue
		}
		c.slots[role] = idx
		c.Roles[idx] = role
	}

	if _, ok := c.slots[ColumnRole{Kind: RoleDate}]; ok {
		c.Layout = LayoutNarrow
		if err := c.checkNarrow(); err != nil {
			return nil, err
		}
		return c, nil
	}

	c.Layout = LayoutWide
	c.Days = c.collectDays()
	if len(c.Days) == 0 {
		return nil, ErrUnrecognizedLayout
	}
	if err := c.checkWide(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Classification) collectDays() []int {
	seen := make(map[int]bool)
	var days []int
	for role := range c.slots {
		if role.Kind == RoleFlow && role.Day > 0 && !seen[role.Day] {
			seen[role.Day] = true
			days = append(days, role.Day)
		}
	}
	sort.Ints(days)
	return days
}

func (c *Classification) checkNarrow() error {
	required := []ColumnRole{
		{Kind: RoleProductName},
		{Kind: RoleDate},
		{Kind: RoleOpeningInventory},
	}
	for _, f := range allFlows {
		required = append(required, ColumnRole{Kind: RoleFlow, Flow: f})
	}

	var missing []string
	for _, role := range required {
		if _, ok := c.slots[role]; !ok {
			missing = append(missing, role.String())
		}
	}
	if len(missing) > 0 {
		return &MissingHeaderError{Layout: LayoutNarrow, Missing: missing}
	}
	c.openingCol = c.slots[ColumnRole{Kind: RoleOpeningInventory}]
	return nil
}

func (c *Classification) checkWide() error {
	var missing []string
	if _, ok := c.slots[ColumnRole{Kind: RoleProductName}]; !ok {
		missing = append(missing, "Product Name")
	}

	// 显式 Day 1 优先，其次不带后缀的 Opening Inventory
	if idx, ok := c.slots[ColumnRole{Kind: RoleOpeningInventory, Day: 1}]; ok {
		c.openingCol = idx
	} else if idx, ok := c.slots[ColumnRole{Kind: RoleOpeningInventory}]; ok {
		c.openingCol = idx
	} else {
		missing = append(missing, "Opening Inventory Day 1")
	}

	if len(missing) > 0 {
		return &MissingHeaderError{Layout: LayoutWide, Missing: missing}
	}
	return nil
}
