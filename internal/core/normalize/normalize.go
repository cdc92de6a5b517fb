// Package normalize 把異質的自由文本成分名改寫為可查詢的規範形式。
// 管線是固定順序的純函數重寫步驟：各步驟假設前面的清理已完成
// （例如水合後綴去除必須排在 Unicode 點號統一之後，否則片假名中點
// 不會被認成水合分隔符）。整條管線不做 I/O、不會失敗、且冪等。
package normalize

import "strings"

// Meta 正規化過程擷取的輔助資訊
type Meta struct {
	Hydration int // 去除的水合數；0 表示未標示
}

// Normalize 把原始成分名改寫為規範形式；無法辨識的模式原樣通過
func Normalize(raw string) string {
	form, _ := NormalizeWithMeta(raw)
	return form
}

// NormalizeWithMeta 與 Normalize 相同，另外回傳擷取到的輔助資訊
func NormalizeWithMeta(raw string) (string, Meta) {
	var meta Meta
	s := strings.TrimSpace(raw)
	for _, st := range pipeline {
		s = st.fn(s, &meta)
	}
	return s, meta
}

// StepNames 回傳管線各步驟名稱（依執行順序），供報告與除錯使用
func StepNames() []string {
	names := make([]string, len(pipeline))
	for i, st := range pipeline {
		names[i] = st.name
	}
	return names
}
