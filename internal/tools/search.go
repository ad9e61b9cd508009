package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultSearchURL   = "https://api.tavily.com"
	maxSearchResults   = 10
	maxSnippetRunes    = 500
	defaultResultCount = 3
)

// SearchConfig configures the web search tool.
type SearchConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxResults int
}

// SearchTool queries the Tavily search API.
type SearchTool struct {
	client     *resty.Client
	maxResults int
}

func NewSearchTool(cfg SearchConfig) *SearchTool {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSearchURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultResultCount
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &SearchTool{client: client, maxResults: cfg.MaxResults}
}

func (s *SearchTool) Name() string { return "web_search" }

func (s *SearchTool) Description() string {
	return "Search the internet for current information. Returns a short answer and the most relevant pages with their URLs."
}

func (s *SearchTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "query", Type: "string", Description: "The search query", Required: true},
		{Name: "max_results", Type: "integer", Description: fmt.Sprintf("Number of results to return (1-%d)", maxSearchResults), Default: s.maxResults},
		{Name: "time_range", Type: "string", Description: "Only return results from this recent period", Enum: []string{"day", "week", "month", "year"}},
		{Name: "include_answer", Type: "string", Description: "Depth of the generated answer", Default: "advanced", Enum: []string{"basic", "advanced"}},
		{Name: "include_favicon", Type: "boolean", Description: "Include each result's favicon URL", Default: false},
	}
}

type searchRequest struct {
	Query          string `json:"query"`
	MaxResults     int    `json:"max_results"`
	TimeRange      string `json:"time_range,omitempty"`
	IncludeAnswer  string `json:"include_answer,omitempty"`
	IncludeFavicon bool   `json:"include_favicon"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Favicon string  `json:"favicon"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer"`
	Results []searchResult `json:"results"`
}

type searchError struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}

func (s *SearchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query := strings.TrimSpace(StringParam(params, "query"))
	if query == "" {
		return "", errors.New("query is empty")
	}

	count := IntParam(params, "max_results", s.maxResults)
	if count < 1 {
		count = 1
	}
	if count > maxSearchResults {
		count = maxSearchResults
	}

	req := searchRequest{
		Query:          query,
		MaxResults:     count,
		TimeRange:      StringParam(params, "time_range"),
		IncludeAnswer:  StringParam(params, "include_answer"),
		IncludeFavicon: BoolParam(params, "include_favicon"),
	}

	var out searchResponse
	var apiErr searchError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/search")
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Detail.Error != "" {
			return "", fmt.Errorf("search API returned %s: %s", resp.Status(), apiErr.Detail.Error)
		}
		return "", fmt.Errorf("search API returned %s", resp.Status())
	}

	return formatResults(query, out, req.IncludeFavicon), nil
}

func formatResults(query string, resp searchResponse, favicons bool) string {
	if resp.Answer == "" && len(resp.Results) == 0 {
		return fmt.Sprintf("no results found for '%s'", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Search: %s\n", query))

	if resp.Answer != "" {
		sb.WriteString(fmt.Sprintf("\nAnswer: %s\n", resp.Answer))
	}

	if len(resp.Results) > 0 {
		sb.WriteString("\nResults:\n")
	}
	for i, r := range resp.Results {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, r.Title))
		sb.WriteString(fmt.Sprintf("   URL: %s\n", r.URL))
		if favicons && r.Favicon != "" {
			sb.WriteString(fmt.Sprintf("   Favicon: %s\n", r.Favicon))
		}
		if r.Content != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", truncateRunes(r.Content, maxSnippetRunes)))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// truncateRunes cuts s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
