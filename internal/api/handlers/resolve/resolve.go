// Package resolve 提供線上解析端點：接收成分名清單，
// 回傳與批次模式相同語義的映射結果。
package resolve

import (
	"net/http"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/resolver"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 單次請求的名稱數上限，防止把批次工作塞進線上端點
const maxNamesPerRequest = 200

// Request 解析請求
type Request struct {
	Names []string `json:"names" binding:"required,min=1"`
}

// MappingRow 單筆映射的 JSON 表示
type MappingRow struct {
	SubjectID     string  `json:"subject_id"`
	SubjectLabel  string  `json:"subject_label"`
	PredicateID   string  `json:"predicate_id"`
	ObjectID      string  `json:"object_id,omitempty"`
	ObjectLabel   string  `json:"object_label,omitempty"`
	Justification string  `json:"mapping_justification"`
	Confidence    float64 `json:"confidence"`
}

// Response 解析響應
type Response struct {
	RunID    string       `json:"run_id"`
	Total    int          `json:"total"`
	Unmapped int          `json:"unmapped"`
	Coverage float64      `json:"coverage"`
	Mappings []MappingRow `json:"mappings"`
}

// Handler 解析端點處理器
type Handler struct {
	resolver *resolver.Resolver
}

// NewHandler 創建解析端點處理器
func NewHandler(r *resolver.Resolver) *Handler {
	return &Handler{resolver: r}
}

// HandleResolve 處理 POST /api/v1/resolve
func (h *Handler) HandleResolve(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("解析請求格式錯誤",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
			"code":  common.ErrCodeInvalidInput,
		})
		return
	}
	if len(req.Names) > maxNamesPerRequest {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "too many names in one request",
			"code":  common.ErrCodeInvalidInput,
			"max":   maxNamesPerRequest,
		})
		return
	}

	table, report := h.resolver.Run(c.Request.Context(), req.Names)

	rows := make([]MappingRow, 0, table.Len())
	for _, m := range table.Rows() {
		rows = append(rows, MappingRow{
			SubjectID:     m.SubjectID,
			SubjectLabel:  m.SubjectLabel,
			PredicateID:   m.PredicateID,
			ObjectID:      m.ObjectID,
			ObjectLabel:   m.ObjectLabel,
			Justification: m.Justification,
			Confidence:    m.Confidence,
		})
	}

	c.JSON(http.StatusOK, Response{
		RunID:    report.RunID,
		Total:    report.Total,
		Unmapped: report.Unmapped,
		Coverage: report.Coverage(),
		Mappings: rows,
	})
}
