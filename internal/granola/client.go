// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package granola

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/pdiddy/granola-export/internal/httputil"
	"github.com/pdiddy/granola-export/internal/logger"
	"github.com/pdiddy/granola-export/pkg/types"
)

const (
	DefaultBaseURL           = "https://api.granola.ai"
	DefaultUserAgent         = "Granola/6.317.0"
	DefaultPageSize          = 100
	DefaultTimeout           = 60 * time.Second
	DefaultRequestsPerSecond = 2.0

	documentsPath = "/v2/get-documents"
	maxErrorBody  = 512
)

// StatusError reports a non-2xx API response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client lists documents from the Granola API.
type Client struct {
	http    *http.Client
	cfg     types.APIConfig
	token   string
	limiter *rate.Limiter
}

// NewClient returns a client authenticating with token. Zero fields in cfg
// take the package defaults. A nil httpClient gets one with cfg.Timeout.
func NewClient(httpClient *http.Client, token string, cfg types.APIConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http:    httpClient,
		cfg:     cfg,
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

type listRequest struct {
	Limit                  int  `json:"limit"`
	Offset                 int  `json:"offset"`
	IncludeLastViewedPanel bool `json:"include_last_viewed_panel"`
}

// ListDocuments pages through get-documents until a short page arrives, a
// page adds no unseen documents, or cfg.Limit documents are collected.
// Documents are returned in API order.
func (c *Client) ListDocuments(ctx context.Context) ([]types.Document, error) {
	var all []types.Document
	seen := make(map[string]bool)

	for offset := 0; ; {
		size := c.cfg.PageSize
		if c.cfg.Limit > 0 && c.cfg.Limit-len(all) < size {
			size = c.cfg.Limit - len(all)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := c.fetchPage(ctx, size, offset)
		if err != nil {
			return nil, fmt.Errorf("fetching documents at offset %d: %w", offset, err)
		}
		logger.Debug("get-documents offset=%d limit=%d returned %d", offset, size, len(page))

		added := 0
		for _, d := range page {
			if d.ID != "" && seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			all = append(all, d)
			added++
		}

		offset += len(page)
		if len(page) < size || added == 0 {
			break
		}
		if c.cfg.Limit > 0 && len(all) >= c.cfg.Limit {
			break
		}
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, limit, offset int) ([]types.Document, error) {
	body, err := json.Marshal(listRequest{Limit: limit, Offset: offset, IncludeLastViewedPanel: true})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+documentsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}

	data, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncateBody(string(data))}
	}

	return decodeDocuments(data)
}

// truncateBody trims msg to at most maxErrorBody bytes without splitting a
// UTF-8 sequence.
func truncateBody(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) <= maxErrorBody {
		return msg
	}
	n := maxErrorBody
	for n > 0 && !utf8.RuneStart(msg[n]) {
		n--
	}
	return msg[:n] + "..."
}

// decodeDocuments accepts either {"docs": [...]} or a bare array.
func decodeDocuments(data []byte) ([]types.Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var docs []types.Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parsing documents: %w", err)
		}
		return docs, nil
	}

	var wrapped struct {
		Docs *[]types.Document `json:"docs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing documents: %w", err)
	}
	if wrapped.Docs == nil {
		return nil, fmt.Errorf("response is not a document list")
	}
	return *wrapped.Docs, nil
}
