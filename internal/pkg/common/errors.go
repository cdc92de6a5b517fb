package common

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ConfigError 表示配置錯誤（致命，中止整個執行）
type ConfigError struct {
	message string
}

// Error 實現 error 介面
func (e *ConfigError) Error() string {
	return e.message
}

// NewConfigError 創建新的配置錯誤
func NewConfigError(message string) error {
	return &ConfigError{
		message: message,
	}
}

// IsConfigError 檢查是否為配置錯誤
func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"    // 輸入表格式錯誤
	ErrCodeDictionaryLoad  = "DICTIONARY_LOAD"  // 字典檔載入失敗
	ErrCodeCacheUnavail    = "CACHE_UNAVAILABLE" // 快取後端不可用
	ErrCodeOntologyService = "ONTOLOGY_SERVICE" // 本體服務錯誤
	ErrCodeOutputWrite     = "OUTPUT_WRITE"     // 輸出寫入失敗
)

// 預定義錯誤
var (
	ErrCacheMiss     = NewError("CACHE_MISS", "快取未命中", nil)
	ErrCacheDisabled = NewError("CACHE_DISABLED", "快取已禁用", nil)
	ErrNoResult      = NewError("NO_RESULT", "查無結果", nil)
	ErrQueueClosed   = NewError("QUEUE_CLOSED", "工作隊列已關閉", nil)
)
