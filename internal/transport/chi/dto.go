package chi

import (
	"time"

	"github.com/kailas-cloud/seeker/internal/domain/link"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/seeker/internal/usecase/health"
	searchuc "github.com/kailas-cloud/seeker/internal/usecase/search"
)

const (
	msgInvalidSearchBody = "Invalid request body - query is required"
	msgSearchFailed      = "Failed to fetch search results"
)

type errorResponse struct {
	Error        string `json:"error"`
	Details      string `json:"details,omitempty"`
	SearchEngine string `json:"search_engine,omitempty"`
}

type linkResponse struct {
	URL      string `json:"url"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Openable bool   `json:"openable"`
}

type sourceItem struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Text     string          `json:"text"`
	Content  string          `json:"content"`
	Metadata result.Metadata `json:"metadata"`
	Link     linkResponse    `json:"link"`
}

type searchMetadata struct {
	TotalResults   int     `json:"total_results"`
	Query          string  `json:"query"`
	TopK           int     `json:"top_k"`
	MatchThreshold float64 `json:"match_threshold"`
	SearchEngine   string  `json:"search_engine"`
	Backend        string  `json:"backend"`
	Timestamp      string  `json:"timestamp"`
	TookMS         int64   `json:"took_ms"`
	Fallback       bool    `json:"fallback_answer"`
}

type searchResponse struct {
	Response string         `json:"response"`
	Sources  []sourceItem   `json:"sources"`
	Results  []sourceItem   `json:"results"`
	Metadata searchMetadata `json:"metadata"`
}

type healthResponse struct {
	Status  string                          `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Backend string                          `json:"backend"`
	Version string                          `json:"version"`
}

func (s *Server) linkFor(md result.Metadata) linkResponse {
	target, ok := s.links.Resolve(md)
	if !ok {
		return linkResponse{Label: link.Label(md.Type)}
	}
	return linkResponse{
		URL:      target.URL,
		Label:    target.Label,
		Kind:     string(target.Kind),
		Openable: true,
	}
}

func (s *Server) searchResponse(resp searchuc.Response) searchResponse {
	items := make([]sourceItem, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		md := r.Metadata()
		items[i] = sourceItem{
			ID:       r.ID(),
			Score:    r.Score(),
			Text:     r.Content(),
			Content:  r.Content(),
			Metadata: md,
			Link:     s.linkFor(md),
		}
	}

	return searchResponse{
		Response: resp.Answer,
		Sources:  items,
		Results:  items,
		Metadata: searchMetadata{
			TotalResults:   len(items),
			Query:          resp.Query,
			TopK:           resp.TopK,
			MatchThreshold: resp.MatchThreshold,
			SearchEngine:   resp.Engine,
			Backend:        resp.Backend,
			Timestamp:      resp.Timestamp.Format(time.RFC3339Nano),
			TookMS:         resp.Took.Milliseconds(),
			Fallback:       resp.Fallback,
		},
	}
}
