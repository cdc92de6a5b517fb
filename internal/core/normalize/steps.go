package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// 各重寫步驟使用的正則，於載入時編譯一次
var (
	prefixMarkerRe   = regexp.MustCompile(`^-{2,}\s*`)
	concentrationRe  = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?\s*%\s*(?:\(?[wv]/[wv]\)?)?\s*`)
	ionicGluedRe     = regexp.MustCompile(`\(?NH4\)?(\d)`)
	rotationSignRe   = regexp.MustCompile(`\(\s*[+\-±]\s*\)-?`)
	stereoPrefixRe   = regexp.MustCompile(`(?i)^(dl|l|d)-`)
	elementalRe      = regexp.MustCompile(`(?i)\belemental\b`)
	anhydrousRe      = regexp.MustCompile(`(?i),?\s*\banhydrous\b,?`)
	romanParenRe     = regexp.MustCompile(`(?i)\s*\(\s*(i{1,3}|iv|vi|v)\s*\)`)
	metalRomanRe     = regexp.MustCompile(`\b(iron|copper|manganese|cobalt|nickel|chromium|tin|lead|mercury|vanadium|molybdenum|tungsten|titanium|cerium)\s+(I{1,3}|IV|VI|V)\b`)
	acidSaltHClRe    = regexp.MustCompile(`(?i)[\s\-·]+HCl$`)
	acidSaltHBrRe    = regexp.MustCompile(`(?i)[\s\-·]+HBr$`)
	atomCompoundRe   = regexp.MustCompile(`^(\d)?(NH4|Na|K|Ca|Mg|Fe|Mn|Zn|Cu|Co|Ni|Li)\s+(\pL.*)$`)
	chelatorRe       = regexp.MustCompile(`^(.+?)\s*[·\-]\s*(\d?)[\s\-]*(NH4|Na|K|Ca|Mg|Fe|Mn|Zn|Cu|Co|Ni|Li)(·.+)?$`)
	numericHydrateRe = regexp.MustCompile(`(?i)\s*[·.x]\s*(\d+)\s*H2O$`)
	unknownHydrateRe = regexp.MustCompile(`(?i)\s*·\s*[nx]\s*H2O$`)
	namedHydrateRe   = regexp.MustCompile(`(?i)[\s·\-]+(hemi|mono|sesqui|di|tri|tetra|penta|hexa|hepta|octa|nona|deca)?hydrate$`)
)

// step 正規化管線中的一個重寫步驟
type step struct {
	name string
	fn   func(s string, m *Meta) string
}

// pipeline 固定順序的重寫步驟；順序即契約，後面的步驟假設前面的清理已完成
var pipeline = []step{
	{"strip_prefix_marker", stripPrefixMarker},
	{"strip_concentration", stripConcentration},
	{"fix_ionic_subscript", fixIonicSubscript},
	{"fix_formula_spacing", fixFormulaSpacing},
	{"greek_to_latin", greekToLatin},
	{"normalize_stereo", normalizeStereo},
	{"strip_qualifiers", stripQualifiers},
	{"normalize_dots", normalizeDots},
	{"normalize_oxidation_state", normalizeOxidationState},
	{"normalize_acid_salt", normalizeAcidSalt},
	{"atom_compound", atomCompound},
	{"reversed_chelator", reversedChelator},
	{"buffer_abbreviation", bufferAbbreviation},
	{"strip_hydrate", stripHydrate},
	{"collapse_whitespace", collapseWhitespace},
	{"formula_to_name", formulaToName},
}

// stripPrefixMarker 去除開頭的非化學前綴標記（如「-- 」）
func stripPrefixMarker(s string, _ *Meta) string {
	return prefixMarkerRe.ReplaceAllString(s, "")
}

// stripConcentration 去除開頭的百分比濃度與 w/v、v/v 等限定詞
func stripConcentration(s string, _ *Meta) string {
	return concentrationRe.ReplaceAllString(s, "")
}

// fixIonicSubscript 把數字黏連的銨基寫法折疊成標準括號式，如 NH42SO4 → (NH4)2SO4
func fixIonicSubscript(s string, _ *Meta) string {
	return ionicGluedRe.ReplaceAllString(s, "(NH4)$1")
}

// fixFormulaSpacing 去除化學式內部的多餘空格；只在去空格後整串仍像化學式時才動
func fixFormulaSpacing(s string, _ *Meta) string {
	if !strings.Contains(s, " ") {
		return s
	}
	collapsed := strings.ReplaceAll(s, " ", "")
	if looksLikeFormula(collapsed) {
		return collapsed
	}
	return s
}

// greekToLatin 希臘字母轉拉丁拼寫
func greekToLatin(s string, _ *Meta) string {
	return greekReplacer.Replace(s)
}

// normalizeStereo 立體異構前綴統一為大寫短形式，去除旋光符號
func normalizeStereo(s string, _ *Meta) string {
	s = rotationSignRe.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "--", "-")
	s = strings.TrimSuffix(s, "-")
	if m := stereoPrefixRe.FindStringSubmatch(s); m != nil {
		s = strings.ToUpper(m[1]) + "-" + s[len(m[0]):]
	}
	return s
}

// stripQualifiers 去除 elemental 與 anhydrous 限定詞
func stripQualifiers(s string, _ *Meta) string {
	s = elementalRe.ReplaceAllString(s, "")
	s = anhydrousRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// normalizeDots 非 ASCII 點號統一為「·」，保留給水合記法
func normalizeDots(s string, _ *Meta) string {
	return dotReplacer.Replace(s)
}

// normalizeOxidationState 氧化態記法統一為緊貼的大寫括號式，如 iron (ii) → iron(II)
func normalizeOxidationState(s string, _ *Meta) string {
	s = romanParenRe.ReplaceAllStringFunc(s, func(match string) string {
		inner := romanParenRe.FindStringSubmatch(match)[1]
		return "(" + strings.ToUpper(inner) + ")"
	})
	s = metalRomanRe.ReplaceAllString(s, "$1($2)")
	return s
}

// normalizeAcidSalt 結尾的酸式鹽縮寫展開為鹽名，如 -HCl → hydrochloride
func normalizeAcidSalt(s string, _ *Meta) string {
	s = acidSaltHClRe.ReplaceAllString(s, " hydrochloride")
	s = acidSaltHBrRe.ReplaceAllString(s, " hydrobromide")
	return s
}

// atomCompound 「原子＋化合物」簡寫展開，如 Na acetate → sodium acetate、2Na EDTA → disodium EDTA
func atomCompound(s string, _ *Meta) string {
	m := atomCompoundRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	prefix, ok := multiplicityPrefixes[m[1]]
	if !ok {
		return s
	}
	return prefix + atomNames[m[2]] + " " + m[3]
}

// reversedChelator 螯合劑反寫記法改寫，如 EDTA·2Na → disodium EDTA；尾端水合部分原樣保留
func reversedChelator(s string, _ *Meta) string {
	m := chelatorRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	compound := strings.TrimSpace(m[1])
	// 化合物部分若以水合式結尾，這其實是水合記法而非反寫鹽，留給後續步驟
	if strings.HasSuffix(strings.ToUpper(compound), "H2O") {
		return s
	}
	prefix := multiplicityPrefixes[m[2]]
	return prefix + atomNames[m[3]] + " " + compound + m[4]
}

// bufferAbbreviation 緩衝劑縮寫展開為完整化學名
func bufferAbbreviation(s string, _ *Meta) string {
	if full, ok := bufferSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return full
	}
	return s
}

// stripHydrate 去除命名或數字水合後綴，取得無水基名；水合數記入 Meta
func stripHydrate(s string, m *Meta) string {
	if match := numericHydrateRe.FindStringSubmatch(s); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			m.Hydration = n
		}
		return strings.TrimSpace(s[:len(s)-len(match[0])])
	}
	if match := unknownHydrateRe.FindString(s); match != "" {
		return strings.TrimSpace(strings.TrimSuffix(s, match))
	}
	// 命名水合詞必須是獨立字尾（前有分隔符），避免誤傷 carbohydrate 這類單詞
	if match := namedHydrateRe.FindStringSubmatch(s); match != nil {
		rest := strings.TrimSpace(s[:len(s)-len(match[0])])
		if rest == "" {
			return s
		}
		if match[1] != "" {
			m.Hydration = hydrateWords[strings.ToLower(match[1])]
		}
		return rest
	}
	return s
}

// collapseWhitespace 壓縮連續空白並修剪首尾
func collapseWhitespace(s string, _ *Meta) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " ,.")
}

// formulaToName 仍是裸化學式的字串嘗試轉成常用名，查無則原樣通過
func formulaToName(s string, _ *Meta) string {
	if !looksLikeFormula(s) {
		return s
	}
	if name, ok := formulaNames[s]; ok {
		return name
	}
	return s
}

// looksLikeFormula 判斷字串是否像裸化學式：
// 以大寫字母或左括號開頭、只含化學式字符、且沒有三個以上連續小寫字母（排除一般英文詞）
func looksLikeFormula(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	if !(first >= 'A' && first <= 'Z' || first == '(') {
		return false
	}
	lowerRun := 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lowerRun++
			if lowerRun >= 3 {
				return false
			}
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '(', r == ')', r == '·':
			lowerRun = 0
		default:
			return false
		}
	}
	return true
}
