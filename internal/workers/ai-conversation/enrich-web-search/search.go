// internal/workers/ai-conversation/enrich-web-search/search.go
package enrichwebsearch

import (
	"context"
	"strings"
	"time"

	apperrors "fep-agent/internal/common/errors"
	apphttp "fep-agent/internal/common/http"
)

// Searcher is the web search capability.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	http    *apphttp.Client
	baseURL string
	apiKey  string
}

func NewTavilyClient(baseURL, apiKey string, timeout time.Duration) *TavilyClient {
	return &TavilyClient{
		http:    apphttp.NewClient(timeout, 1),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *TavilyClient) Configured() bool { return c.apiKey != "" }

func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if !c.Configured() {
		return nil, apperrors.NewWebSearchNotConfiguredError()
	}
	body := map[string]interface{}{
		"api_key":     c.apiKey,
		"query":       query,
		"max_results": maxResults,
	}
	var resp struct {
		Results []rawResult `json:"results"`
	}
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/search", nil, body, &resp); err != nil {
		return nil, apperrors.NewWebSearchFailedError(err)
	}

	out := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.normalize())
	}
	return out, nil
}
