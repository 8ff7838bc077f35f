package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div id="links" class="results">
  <div class="result results_links result--ad">
    <div class="result__body">
      <h2 class="result__title"><a class="result__a" href="https://ads.example">Sponsored</a></h2>
      <a class="result__url" href="https://ads.example">ads.example</a>
      <a class="result__snippet">Buy now</a>
    </div>
  </div>
  <div class="result results_links web-result">
    <div class="result__body">
      <h2 class="result__title">
        <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&amp;rut=abc">The Go <b>Programming</b> Language</a>
      </h2>
      <a class="result__url" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&amp;rut=abc">go.dev/doc</a>
      <a class="result__snippet" href="#">Documentation for   the <b>Go</b> language.</a>
    </div>
  </div>
  <div class="result results_links web-result">
    <div class="result__body">
      <h2 class="result__title"><a class="result__a" href="https://example.com/no-snippet">No snippet</a></h2>
      <a class="result__url" href="https://example.com/no-snippet">example.com</a>
    </div>
  </div>
  <div class="result results_links web-result">
    <div class="result__body">
      <h2 class="result__title"><a class="result__a" href="https://pkg.go.dev">Go Packages</a></h2>
      <a class="result__url" href="https://pkg.go.dev">pkg.go.dev</a>
      <a class="result__snippet">Search Go packages.</a>
    </div>
  </div>
  <div class="result results_links web-result">
    <div class="result__body">
      <h2 class="result__title"><a class="result__a" href="https://go.dev/tour">Tour</a></h2>
      <a class="result__url" href="https://go.dev/tour">go.dev/tour</a>
      <a class="result__snippet">A Tour of Go.</a>
    </div>
  </div>
</div>
</body></html>`

func TestDuckDuckGo_Search(t *testing.T) {
	var gotQuery, gotMethod, gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotUA = r.Method, r.URL.Path, r.UserAgent()
		_ = r.ParseForm()
		gotQuery = r.PostForm.Get("q")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(config.SearchConfig{BaseURL: srv.URL, UserAgent: "test-agent", Timeout: 5 * time.Second})
	results, err := d.Search(context.Background(), "golang docs", 2)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/html/", gotPath)
	assert.Equal(t, "golang docs", gotQuery)
	assert.Equal(t, "test-agent", gotUA)

	require.Len(t, results, 2)
	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "https://go.dev/doc/", results[0].URL)
	assert.Equal(t, "Documentation for the Go language.", results[0].Snippet)
	assert.Equal(t, "Go Packages", results[1].Title)
	assert.Equal(t, "https://pkg.go.dev", results[1].URL)
}

func TestDuckDuckGo_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewDuckDuckGo(config.SearchConfig{BaseURL: srv.URL}).Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestParseResults_NoResults(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><div class="no-results">No results.</div></body></html>`))
	require.NoError(t, err)

	results := parseResults(doc, 5)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t, "https://a.example/x?y=1", unwrapRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example%2Fx%3Fy%3D1"))
	assert.Equal(t, "https://b.example", unwrapRedirect("//b.example"))
	assert.Equal(t, "https://c.example/p", unwrapRedirect(" https://c.example/p "))
	assert.Empty(t, unwrapRedirect(""))
}
