// Package ontology 實作對外部術語服務（OLS）的多階段搜尋：
// 精確、同義詞、多本體、模糊，依固定優先序嘗試，全部經快取與限流。
package ontology

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Doc 搜尋服務回傳的單一候選
type Doc struct {
	OboID        string   `json:"obo_id"`
	Label        string   `json:"label"`
	OntologyName string   `json:"ontology_name"`
	Synonyms     []string `json:"synonym,omitempty"`
	Score        float64  `json:"score,omitempty"`
}

// searchResponse OLS 搜尋回應結構
type searchResponse struct {
	Response struct {
		NumFound int   `json:"numFound"`
		Docs     []Doc `json:"docs"`
	} `json:"response"`
}

// SearchOpts 單次搜尋的參數
type SearchOpts struct {
	Exact       bool
	QueryFields []string
	Rows        int
}

// Client 術語服務客戶端；所有請求先過限流器，暫時性錯誤以封頂退避重試
type Client struct {
	client  *resty.Client
	cfg     *config.OntologyConfig
	limiter *Limiter
}

// NewClient 創建術語服務客戶端
func NewClient(cfg *config.OntologyConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		client:  client,
		cfg:     cfg,
		limiter: NewLimiter(cfg.MinInterval, cfg.MaxInFlight),
	}
}

// Search 對指定本體發出一次標籤／同義詞搜尋，回傳原始回應位元組與解析後的候選
func (c *Client) Search(ctx context.Context, query, ontology string, opts SearchOpts) ([]Doc, json.RawMessage, error) {
	rows := opts.Rows
	if rows <= 0 {
		rows = c.cfg.RowLimit
	}

	params := map[string]string{
		"q":        query,
		"ontology": ontology,
		"rows":     fmt.Sprintf("%d", rows),
	}
	if opts.Exact {
		params["exact"] = "true"
	}
	if len(opts.QueryFields) > 0 {
		params["queryFields"] = strings.Join(opts.QueryFields, ",")
	}

	body, err := c.doWithRetry(ctx, ontology, query, params)
	if err != nil {
		return nil, nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return parsed.Response.Docs, body, nil
}

// doWithRetry 發送請求；暫時性錯誤（網路錯誤、429、5xx）以封頂指數退避重試，
// 重試耗盡回傳錯誤，由呼叫端降級為該階段「查無結果」
func (c *Client) doWithRetry(ctx context.Context, ontology, query string, params map[string]string) ([]byte, error) {
	backoff := c.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			common.LogDebug("重試本體查詢",
				zap.Int("次數", attempt),
				zap.Duration("退避", backoff),
				zap.String("名稱", query),
			)
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
			backoff *= 2
			if backoff > c.cfg.MaxBackoff {
				backoff = c.cfg.MaxBackoff
			}
		}

		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get("/search")
		c.limiter.Release()

		common.LogOntologyCall(ontology, query, time.Since(start), err)

		if err != nil {
			lastErr = fmt.Errorf("failed to send search request: %w", err)
			continue
		}

		switch {
		case resp.StatusCode() == http.StatusOK:
			return resp.Body(), nil
		case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
			lastErr = fmt.Errorf("search service error (status %d)", resp.StatusCode())
			continue
		default:
			// 其他 4xx 不重試
			return nil, fmt.Errorf("search service rejected request (status %d): %s", resp.StatusCode(), resp.String())
		}
	}

	return nil, fmt.Errorf("search retries exhausted: %w", lastErr)
}
