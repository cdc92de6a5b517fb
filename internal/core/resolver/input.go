package resolver

import (
	"bufio"
	"os"
	"strings"

	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"
)

// ReadNames 讀取單欄 TSV 的成分名清單。
// 跳過空行與 # 開頭的註解行；多欄時只取第一欄；
// 重複名稱只保留第一次出現（保序去重）。
func ReadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInvalidInput, "無法開啟輸入檔案", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var names []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '\t'); idx >= 0 {
			line = line[:idx]
		}
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if name == "ingredient" || name == "name" {
			// 標頭行
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, common.NewError(common.ErrCodeInvalidInput, "讀取輸入檔案失敗", err)
	}
	return names, nil
}
