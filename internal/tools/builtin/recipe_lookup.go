package builtin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pantry/internal/toolregistry"
)

// RecipeLookupTransport backs the recipe-URL-lookup tool of S7. The
// out-of-scope search backend is modeled as returning a search-results
// HTML page rather than structured JSON, so this transport scrapes the
// anchors itself instead of assuming a JSON API exists everywhere.
type RecipeLookupTransport struct {
	SearchURL string
	Client    *http.Client
}

// NewRecipeLookupTransport builds a transport that issues a GET to
// SearchURL with a query-string title and parses the returned page's
// result anchors.
func NewRecipeLookupTransport(searchURL string, timeout time.Duration) *RecipeLookupTransport {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RecipeLookupTransport{SearchURL: searchURL, Client: &http.Client{Timeout: timeout}}
}

func (t *RecipeLookupTransport) Invoke(ctx context.Context, toolName string, arguments map[string]any) (*toolregistry.ToolResult, error) {
	titles, err := titlesFromArguments(arguments)
	if err != nil {
		return &toolregistry.ToolResult{Err: err}, nil
	}

	urlsByTitle := make(map[string][]string, len(titles))
	for _, title := range titles {
		found, err := t.lookupOne(ctx, title)
		if err != nil {
			return &toolregistry.ToolResult{Err: fmt.Errorf("recipe lookup for %q: %w", title, err)}, nil
		}
		urlsByTitle[title] = found
	}
	return &toolregistry.ToolResult{Data: map[string]any{"urls_by_title": urlsByTitle}}, nil
}

func (t *RecipeLookupTransport) lookupOne(ctx context.Context, title string) ([]string, error) {
	reqURL := t.SearchURL + "?q=" + url.QueryEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results page: %w", err)
	}

	var urls []string
	doc.Find("a.result-link, a[data-recipe-url]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		urls = append(urls, href)
	})
	return urls, nil
}

func titlesFromArguments(arguments map[string]any) ([]string, error) {
	raw, ok := arguments["titles"]
	if !ok {
		return nil, fmt.Errorf("recipe_lookup: missing titles parameter")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("recipe_lookup: titles must be an array")
	}
	titles := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || s == "" {
			continue
		}
		titles = append(titles, s)
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("recipe_lookup: no usable titles")
	}
	return titles, nil
}
