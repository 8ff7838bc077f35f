package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

const (
	defaultSearchResults = 5
	maxSearchResults     = 20
	summarySnippets      = 3
	summaryMaxLen        = 500
)

// SearchService runs web searches and builds a short extractive summary
type SearchService struct {
	provider ports.SearchProvider
	logger   *logger.Logger
}

// NewSearchService creates a new search service
func NewSearchService(provider ports.SearchProvider, logger *logger.Logger) *SearchService {
	return &SearchService{
		provider: provider,
		logger:   logger.WithComponent("search"),
	}
}

// Search queries the provider and summarizes the results
func (s *SearchService) Search(ctx context.Context, query string, maxResults int) (*ports.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, entities.Invalid("query is required")
	}
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}
	if maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}

	results, err := s.provider.Search(ctx, query, maxResults)
	if err != nil {
		s.logger.Warnw("Web search failed", "provider", s.provider.Name(), "query", query, "error", err)
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return Summarize(query, results), nil
}

// Summarize joins the first snippets into a bounded summary and lists every source URL.
func Summarize(query string, results []ports.SearchResult) *ports.SearchResponse {
	var snippets []string
	sources := make([]string, 0, len(results))
	for i, r := range results {
		if i < summarySnippets && r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
		sources = append(sources, r.URL)
	}

	summary := strings.Join(snippets, " ")
	if len(summary) > summaryMaxLen {
		summary = truncateRunes(summary, summaryMaxLen) + "..."
	}

	if results == nil {
		results = []ports.SearchResult{}
	}
	return &ports.SearchResponse{
		Query:   query,
		Results: results,
		Summary: summary,
		Sources: sources,
	}
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}
