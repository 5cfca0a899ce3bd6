package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// synonym 一条同义词改写规则
type synonym struct {
	pattern *regexp.Regexp
	replace string
}

// cjkSynonyms 中文改写表，作用于单个词元内部；同一条规则内较长的备选写在前面
var cjkSynonyms = []synonym{
	{regexp.MustCompile(`第(\d+)[天日]`), "day${1}"},
	{regexp.MustCompile(`(?:开始|起始)日期`), "startdate"},
	{regexp.MustCompile(`(?:产品|商品|货品)?(?:名称|品名)`), "productname"},
	{regexp.MustCompile(`(?:产品|商品|货品)?(?:编号|编码)|货号`), "productid"},
	{regexp.MustCompile(`日期`), "date"},
	{regexp.MustCompile(`(?:期初|初始|开仓)(?:库存|存货)(?:数量|量)?`), "openinginventory"},
	{regexp.MustCompile(`采购|进货|购入`), "procurement"},
	{regexp.MustCompile(`销售|售出`), "sales"},
	{regexp.MustCompile(`销量`), "salesqty"},
	{regexp.MustCompile(`售价`), "salesprice"},
	{regexp.MustCompile(`进价`), "procurementprice"},
	{regexp.MustCompile(`数量|件数|量`), "qty"},
	{regexp.MustCompile(`单价|价格`), "price"},
}

// englishSynonyms 英文整词改写表：键为连续若干词元拼接后的结果
// 只匹配完整词元，"wholesale" 中的 "sale" 不会被改写。
var englishSynonyms = map[string]string{}

// maxPhraseTokens 英文短语最多跨越的词元数
const maxPhraseTokens = 3

func init() {
	groups := map[string][]string{
		"productid":        {"externalid", "productid", "itemid", "productcode", "itemcode", "sku"},
		"productname":      {"productname", "itemname", "goodsname", "name"},
		"startdate":        {"startingdate", "startdate", "beginningdate", "begindate"},
		"openinginventory": {"openinginventory", "openingstock", "openinginv", "openinventory", "openinv", "initialinventory", "initialstock", "beginninginventory", "startinginventory"},
		"procurement":      {"procurement", "procure", "purchases", "purchased", "purchasing", "purchase", "buying", "buy"},
		"sales":            {"sales", "selling", "sold", "sell", "sale"},
		"price":            {"unitprice", "unitcost", "price"},
		"qty":              {"quantity", "qnty", "qty", "units"},
	}
	for canonical, phrases := range groups {
		for _, p := range phrases {
			englishSynonyms[p] = canonical
		}
	}
}

// soloProductWords 整个表头只有这一个词时视为商品名称
var soloProductWords = map[string]bool{"product": true, "item": true, "goods": true}

// NormalizeHeader 规范化表头：全角转半角、小写、按词元做同义词折叠，再去掉所有分隔符。
// 纯字符串改写，不涉及角色判断。
func NormalizeHeader(header string) string {
	tokens := headerTokens(header)
	for i, tok := range tokens {
		for _, syn := range cjkSynonyms {
			tok = syn.pattern.ReplaceAllString(tok, syn.replace)
		}
		tokens[i] = tok
	}
	return strings.Join(foldEnglish(tokens), "")
}

// headerTokens 按非字母数字切分，并在 camelCase 的大小写交界处切分。
// 汉字之间（或汉字与数字之间）的分隔符被忽略，"第 1 天" 仍是一个词元。
func headerTokens(header string) []string {
	runes := []rune(width.Fold.String(header))

	var (
		tokens []string
		cur    strings.Builder
		last   rune
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i, r := range runes {
		if !isWordRune(r) {
			if cur.Len() > 0 && bridgesHan(last, nextWordRune(runes, i)) {
				continue
			}
			flush()
			continue
		}
		if i > 0 && unicode.IsLower(runes[i-1]) && unicode.IsUpper(r) {
			flush()
		}
		cur.WriteRune(unicode.ToLower(r))
		last = r
	}
	flush()
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func nextWordRune(runes []rune, from int) rune {
	for _, r := range runes[from:] {
		if isWordRune(r) {
			return r
		}
	}
	return 0
}

func bridgesHan(prev, next rune) bool {
	isHan := func(r rune) bool { return unicode.Is(unicode.Han, r) }
	hanOrDigit := func(r rune) bool { return isHan(r) || unicode.IsDigit(r) }
	return hanOrDigit(prev) && hanOrDigit(next) && (isHan(prev) || isHan(next))
}

// foldEnglish 从左到右贪心匹配最长的英文短语
func foldEnglish(tokens []string) []string {
	if len(tokens) == 1 && soloProductWords[tokens[0]] {
		return []string{"productname"}
	}
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		matched := false
		for k := min(maxPhraseTokens, len(tokens)-i); k >= 1; k-- {
			if canonical, ok := englishSynonyms[strings.Join(tokens[i:i+k], "")]; ok {
				out = append(out, canonical)
				i += k
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, tokens[i])
			i++
		}
	}
	return out
}
