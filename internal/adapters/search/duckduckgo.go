// Package search implements web search providers.
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/ports"
)

const defaultBaseURL = "https://html.duckduckgo.com"

// DuckDuckGo scrapes the keyless HTML endpoint
type DuckDuckGo struct {
	client *resty.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider from cfg
func NewDuckDuckGo(cfg config.SearchConfig) *DuckDuckGo {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(timeout)
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &DuckDuckGo{client: c}
}

// Name returns the provider name
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search posts the query and parses up to maxResults organic results
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]ports.SearchResult, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"q": query}).
		Post("/html/")
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: HTTP %d", resp.StatusCode())
	}

	doc, err := html.Parse(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse html: %w", err)
	}

	return parseResults(doc, maxResults), nil
}

// parseResults walks every ".result" block. Blocks missing a title, snippet
// or link are skipped, as are ads.
func parseResults(doc *html.Node, limit int) []ports.SearchResult {
	results := []ports.SearchResult{}

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if limit > 0 && len(results) >= limit {
			return false
		}
		if n.Type == html.ElementNode && hasClass(n, "result") {
			if !hasClass(n, "result--ad") {
				if r, ok := parseResult(n); ok {
					results = append(results, r)
				}
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	return results
}

func parseResult(n *html.Node) (ports.SearchResult, bool) {
	title := findByClass(n, "result__title")
	snippet := findByClass(n, "result__snippet")
	link := findByClass(n, "result__url")
	if title == nil || snippet == nil || link == nil {
		return ports.SearchResult{}, false
	}

	href := unwrapRedirect(attr(link, "href"))
	if href == "" {
		if a := findByClass(n, "result__a"); a != nil {
			href = unwrapRedirect(attr(a, "href"))
		}
	}

	return ports.SearchResult{
		Title:   textContent(title),
		URL:     href,
		Snippet: textContent(snippet),
	}, true
}

// unwrapRedirect resolves DuckDuckGo's "//duckduckgo.com/l/?uddg=<target>" links
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findByClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
