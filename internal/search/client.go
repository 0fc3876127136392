package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okarpov/verilab/internal/cache"
	"github.com/okarpov/verilab/internal/model"
	"github.com/okarpov/verilab/internal/util"
	"github.com/okarpov/verilab/internal/worker"
)

// ErrNoEvidence signals that the search returned zero results for a topic.
// It is terminal for the current trial, not a retry condition.
var ErrNoEvidence = errors.New("search returned no results")

// Client queries the Tavily search API for a single evidence record per topic.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
	cache      cache.Cache
	limiter    *worker.Limiter
}

// Tavily API structures
type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// NewClient creates a search client from configuration. The cache may be nil
// to disable caching.
func NewClient(cfg model.SearchConfig, c cache.Cache) *Client {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 1
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, ""),
			},
		},
		cache:   c,
		limiter: worker.NewLimiter(rps, cfg.BurstSize),
	}
}

// Lookup searches for the topic and returns the single best evidence hit.
// Returns ErrNoEvidence when the search succeeds but finds nothing. Exactly
// one attempt is made per call.
func (c *Client) Lookup(ctx context.Context, topic string) (*model.Evidence, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("empty topic")
	}

	if c.cache != nil {
		if data, found := c.cache.Get(cache.Key(topic)); found {
			var ev model.Evidence
			if err := json.Unmarshal(data, &ev); err == nil {
				return &ev, nil
			}
			// Corrupt entry, fall through to a fresh search
			_ = c.cache.Delete(cache.Key(topic))
		}
	}

	if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := c.search(ctx, topic)
	if err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, ErrNoEvidence
	}

	top := resp.Results[0]
	ev := &model.Evidence{
		URL:     top.URL,
		Content: top.Content,
		Title:   top.Title,
	}

	if c.cache != nil {
		if data, err := json.Marshal(ev); err == nil {
			_ = c.cache.Set(cache.Key(topic), data, 0)
		}
	}

	return ev, nil
}

// search makes a single request to the Tavily search endpoint
func (c *Client) search(ctx context.Context, query string) (*searchResponse, error) {
	apiReq := searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  c.maxResults,
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 4_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (%d): %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var resp searchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}
