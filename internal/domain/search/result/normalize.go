package result

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"
)

// nodeContentKey is the LlamaIndex envelope holding the serialized node.
const nodeContentKey = "_node_content"

// Normalize converts a raw backend hit into the canonical result shape.
func Normalize(h Hit) Result {
	p := h.Payload
	if p == nil {
		p = map[string]any{}
	}

	score := h.Score
	if score == 0 {
		score, _ = toFloat(first(p, "similarity_score", "score"))
	}

	md := Metadata{
		Source:      stringOr(first(p, "document_name", "title", "source"), UnknownSource),
		Title:       stringOr(first(p, "title", "document_name"), UnknownSource),
		Type:        stringOr(first(p, "source_type", "content_type", "genre", "type"), UnknownType),
		Page:        firstInt(p, "page_start", "page_label", "page"),
		Year:        firstInt(p, "year"),
		Author:      toString(p["author"]),
		Genre:       toString(p["genre"]),
		Language:    toString(p["language"]),
		ChunkIndex:  firstInt(p, "chunk_index"),
		TotalChunks: 1,

		JumpLink:  toString(p["jump_link"]),
		SourceURL: toString(p["source_url"]),
		Deeplink:  toString(first(p, "deeplink", "deep_link")),
		URL:       toString(p["url"]),
		FilePath:  toString(p["file_path"]),

		GraphScore:      floatPtr(p["graph_score"]),
		CombinedScore:   floatPtr(p["combined_score"]),
		GraphInfo:       p["graph_info"],
		SimilarityScore: score,

		ContentType:  toString(p["content_type"]),
		FileType:     toString(first(p, "filetype", "file_type")),
		CreatedAt:    toString(p["created_at"]),
		UpdatedAt:    toString(p["updated_at"]),
		ThumbnailURL: toString(p["thumbnail_url"]),

		StartTime:        p["start_time"],
		EndTime:          p["end_time"],
		TimestampSeconds: floatPtr(p["timestamp_seconds"]),
		Timestamp:        p["timestamp"],
		Duration:         p["duration"],

		VideoID:  toString(p["video_id"]),
		VideoURL: toString(p["video_url"]),
		AudioURL: toString(p["audio_url"]),

		Volume:  toString(p["volume"]),
		Issue:   toString(p["issue"]),
		PDFURL:  toString(p["pdf_url"]),
		EPUBURL: toString(p["epub_url"]),

		Raw: maps.Clone(p),
	}
	if n := firstInt(p, "total_chunks"); n != nil && *n > 0 {
		md.TotalChunks = *n
	}

	return New(h.ID, score, extractText(p), md)
}

// NormalizeAll normalizes hits preserving backend order.
func NormalizeAll(hits []Hit) []Result {
	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = Normalize(h)
	}
	return out
}

// extractText reads the passage: the node envelope first, then content, then text.
func extractText(p map[string]any) string {
	switch node := p[nodeContentKey].(type) {
	case string:
		if node != "" {
			var parsed struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal([]byte(node), &parsed); err != nil {
				return node
			}
			return parsed.Text
		}
	case map[string]any:
		return toString(node["text"])
	}
	if s := toString(p["content"]); s != "" {
		return s
	}
	return toString(p["text"])
}

// first returns the first truthy value among keys.
func first(p map[string]any, keys ...string) any {
	for _, k := range keys {
		if truthy(p[k]) {
			return p[k]
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		return t != "" && t != "0"
	default:
		return true
	}
}

func firstInt(p map[string]any, keys ...string) *int {
	for _, k := range keys {
		if !truthy(p[k]) {
			continue
		}
		if f, ok := toFloat(p[k]); ok {
			n := int(f)
			return &n
		}
	}
	return nil
}

func floatPtr(v any) *float64 {
	if f, ok := toFloat(v); ok {
		return &f
	}
	return nil
}

func stringOr(v any, fallback string) string {
	if s := toString(v); s != "" {
		return s
	}
	return fallback
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// toFloat accepts JSON numbers and numeric strings (Redis hashes store everything as strings).
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
