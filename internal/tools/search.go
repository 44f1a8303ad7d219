package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ShayCichocki/troupe/internal/version"
)

// ErrMissingCredentials is returned when a tool needs an API key that is not set.
var ErrMissingCredentials = errors.New("missing tool credentials")

const defaultSearchEndpoint = "https://google.serper.dev/search"

type searchTool struct {
	apiKey   string
	endpoint string
	results  int
	client   *http.Client
}

func newSearchTool(cfg Config) (Tool, error) {
	if cfg.Search.APIKey == "" {
		return nil, fmt.Errorf("%w: search requires SERPER_API_KEY", ErrMissingCredentials)
	}
	endpoint := cfg.Search.Endpoint
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	results := cfg.Search.Results
	if results <= 0 {
		results = 5
	}
	client := cfg.Search.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &searchTool{apiKey: cfg.Search.APIKey, endpoint: endpoint, results: results, client: client}, nil
}

func (s *searchTool) Name() string { return TypeSearch }

func (s *searchTool) Description() string {
	return "Search the web. Returns the top results with title, link and snippet."
}

func (s *searchTool) Schema() (map[string]any, []string) {
	return map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "The search query",
		},
	}, []string{"query"}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s *searchTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	if strings.TrimSpace(params.Query) == "" {
		return "", errors.New("query is required")
	}

	body, err := json.Marshal(serperRequest{Q: params.Query, Num: s.results})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("search error: status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}

	var sr serperResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(sr.Organic) == 0 {
		return "No results found.", nil
	}

	var out strings.Builder
	for i, r := range sr.Organic {
		if i >= s.results {
			break
		}
		fmt.Fprintf(&out, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return out.String(), nil
}
