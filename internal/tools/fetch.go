package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

const (
	defaultFetchChars = 4000
	// maxFetchBytes caps how much of a response body is read.
	maxFetchBytes = 2 << 20
)

// hiddenElements hold text that is never shown to a reader.
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// FetchTool downloads a web page and returns its readable text, so the model
// can read a search hit in full.
type FetchTool struct {
	client *resty.Client
}

func NewFetchTool(timeout time.Duration) *FetchTool {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", "search-agent/1.0").
		SetResponseBodyLimit(maxFetchBytes)
	return &FetchTool{client: client}
}

func (f *FetchTool) Name() string { return "fetch_page" }

func (f *FetchTool) Description() string {
	return "Download a web page by URL and return its text content. Use it to read a search result in more detail."
}

func (f *FetchTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "url", Type: "string", Description: "Page URL (http or https)", Required: true},
		{Name: "max_chars", Type: "integer", Description: "Maximum characters of text to return", Default: defaultFetchChars},
	}
}

func (f *FetchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	url := strings.TrimSpace(StringParam(params, "url"))
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	limit := IntParam(params, "max_chars", defaultFetchChars)
	if limit <= 0 {
		limit = defaultFetchChars
	}

	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return "", fmt.Errorf("%s is larger than %d bytes", url, f.client.ResponseBodyLimit)
	}
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s returned %s", url, resp.Status())
	}

	contentType := resp.Header().Get("Content-Type")
	body := resp.String()
	if strings.Contains(contentType, "html") || strings.HasPrefix(strings.TrimSpace(body), "<") {
		body = htmlToText(body)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL: %s\n", url))
	sb.WriteString(fmt.Sprintf("Status: %s\n", resp.Status()))
	if contentType != "" {
		sb.WriteString(fmt.Sprintf("Content-Type: %s\n", contentType))
	}
	sb.WriteString(fmt.Sprintf("Response Time: %dms\n\n", time.Since(start).Milliseconds()))
	sb.WriteString(truncateRunes(strings.TrimSpace(body), limit))
	return sb.String(), nil
}

// htmlToText returns the visible text of an HTML document with whitespace
// collapsed. Comments and hidden elements are dropped.
func htmlToText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	hidden := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); hiddenElements[string(name)] {
				hidden++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); hiddenElements[string(name)] && hidden > 0 {
				hidden--
			}
		case html.TextToken:
			if hidden == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}
