package seeker

import "time"

// SearchOptions are the optional knobs of a search. Zero values use the defaults
// (top 10, threshold 0.5). Hybrid and graph settings apply to the pipeline backend only.
type SearchOptions struct {
	TopK           int
	MatchThreshold float64
	HybridAlpha    float64
	UseGraph       bool
	GraphWeight    float64
	MaxHops        int
}

// Link is where a source can be opened.
type Link struct {
	URL      string
	Label    string // PDF, Video, Audio, Podcast or Resource
	Kind     string
	Openable bool
}

// Source is one retrieved passage.
type Source struct {
	ID      string
	Score   float64
	Content string
	Title   string
	Source  string
	Type    string
	Page    *int
	Link    Link
	// Raw is the untouched backend payload.
	Raw map[string]any
}

// SearchResponse is an answered search.
type SearchResponse struct {
	Answer  string
	Sources []Source
	Backend string
	Engine  string
	// Fallback is set when the model failed and Answer is the fixed fallback text.
	Fallback bool
	Took     time.Duration
}
