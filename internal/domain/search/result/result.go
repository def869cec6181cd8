package result

import "maps"

// Placeholders used when a backend payload names no document.
const (
	UnknownSource = "Unknown"
	UnknownType   = "unknown"
)

// Hit is a single raw item returned by a retrieval backend.
type Hit struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Metadata is the typed layer over a backend payload. Fields that different
// backends disagree on (timestamps, graph details) stay untyped.
type Metadata struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Page        *int   `json:"page,omitempty"`
	Year        *int   `json:"year,omitempty"`
	Author      string `json:"author,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Language    string `json:"language,omitempty"`
	ChunkIndex  *int   `json:"chunk_index,omitempty"`
	TotalChunks int    `json:"total_chunks"`

	JumpLink  string `json:"jump_link,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Deeplink  string `json:"deeplink,omitempty"`
	URL       string `json:"url,omitempty"`
	FilePath  string `json:"file_path,omitempty"`

	GraphScore      *float64 `json:"graph_score,omitempty"`
	CombinedScore   *float64 `json:"combined_score,omitempty"`
	GraphInfo       any      `json:"graph_info,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`

	ContentType  string `json:"content_type,omitempty"`
	FileType     string `json:"file_type,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	StartTime        any      `json:"start_time,omitempty"`
	EndTime          any      `json:"end_time,omitempty"`
	TimestampSeconds *float64 `json:"timestamp_seconds,omitempty"`
	Timestamp        any      `json:"timestamp,omitempty"`
	Duration         any      `json:"duration,omitempty"`

	VideoID  string `json:"video_id,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`

	Volume  string `json:"volume,omitempty"`
	Issue   string `json:"issue,omitempty"`
	PDFURL  string `json:"pdf_url,omitempty"`
	EPUBURL string `json:"epub_url,omitempty"`

	// Raw is the complete backend payload, including keys the typed layer ignores.
	Raw map[string]any `json:"raw_chunk,omitempty"`
}

// Result is a normalized search hit.
type Result struct {
	id       string
	score    float64
	content  string
	metadata Metadata
}

// New creates a search result.
func New(id string, score float64, content string, metadata Metadata) Result {
	return Result{id: id, score: score, content: content, metadata: metadata}
}

// ID returns the backend identifier.
func (r *Result) ID() string { return r.id }

// Score returns the backend relevance score. Scales differ per backend.
func (r *Result) Score() float64 { return r.score }

// Content returns the retrieved passage.
func (r *Result) Content() string { return r.content }

// Metadata returns a copy of the typed metadata. Raw is copied shallowly.
func (r *Result) Metadata() Metadata {
	m := r.metadata
	m.Raw = maps.Clone(r.metadata.Raw)
	return m
}
