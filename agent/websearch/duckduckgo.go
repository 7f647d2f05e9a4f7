package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const duckduckgoEndpoint = "https://api.duckduckgo.com/"

// DuckDuckGoBackend is the default Backend: it queries the free DuckDuckGo
// Instant Answer API and reshapes its abstract, answer, and related topics
// into {title, url, snippet} records.
type DuckDuckGoBackend struct {
	client *http.Client
}

// NewDuckDuckGoBackend builds a DuckDuckGoBackend. Its HTTP client has no
// timeout of its own; a request is bounded only by the ctx given to Search.
func NewDuckDuckGoBackend() *DuckDuckGoBackend {
	return &DuckDuckGoBackend{client: &http.Client{}}
}

// Name implements Backend.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

type ddgRelatedTopic struct {
	FirstURL string `json:"FirstURL"`
	Text     string `json:"Text"`
}

type ddgResponse struct {
	AbstractText   string            `json:"AbstractText"`
	AbstractSource string            `json:"AbstractSource"`
	AbstractURL    string            `json:"AbstractURL"`
	Answer         string            `json:"Answer"`
	Heading        string            `json:"Heading"`
	RelatedTopics  []ddgRelatedTopic `json:"RelatedTopics"`
}

// Search implements Backend.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, maxResults int) ([]map[string]any, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("no_html", "1")
	params.Add("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, duckduckgoEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("websearch: build request: %w", err)
	}
	req.Header.Set("User-Agent", "agentgraph-websearch/1.0")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("websearch: read response: %w", err)
	}

	var parsed ddgResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("websearch: decode response: %w", err)
	}

	var results []map[string]any
	if parsed.AbstractText != "" {
		results = append(results, map[string]any{
			"title":   firstNonEmpty(parsed.Heading, parsed.AbstractSource, query),
			"url":     parsed.AbstractURL,
			"snippet": parsed.AbstractText,
		})
	}
	if parsed.Answer != "" {
		results = append(results, map[string]any{
			"title":   query,
			"url":     "",
			"snippet": parsed.Answer,
		})
	}
	for _, topic := range parsed.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, map[string]any{
			"title":   topic.Text,
			"url":     topic.FirstURL,
			"snippet": topic.Text,
		})
	}

	if len(results) == 0 {
		results = append(results, map[string]any{
			"title":   "no results",
			"url":     "",
			"snippet": fmt.Sprintf("no instant answer available for %q", query),
		})
	}

	return results, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
