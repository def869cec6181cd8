// Package link decides where a search result can be opened and how the target is labeled.
package link

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/seeker/internal/domain/search/result"
)

// Kind tells which rule produced the target.
type Kind string

// Resolution kinds, in priority order.
const (
	KindNone     Kind = ""
	KindDeeplink Kind = "deeplink"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindEPUB     Kind = "epub"
	KindPDF      Kind = "pdf"
	KindDocument Kind = "document"
	KindURL      Kind = "url"
)

// Labels shown next to a target.
const (
	LabelPDF      = "PDF"
	LabelVideo    = "Video"
	LabelAudio    = "Audio"
	LabelPodcast  = "Podcast"
	LabelResource = "Resource"
)

const (
	// DefaultDocumentBase prefixes relative legacy file paths.
	DefaultDocumentBase = "/documents/"
	youtubeWatchURL     = "https://www.youtube.com/watch?v="
)

// Target is a resolved deep link.
type Target struct {
	URL   string
	Label string
	Kind  Kind
}

// Resolver maps result metadata to deep links.
type Resolver struct {
	documentBase string
}

// NewResolver creates a resolver. An empty documentBase uses DefaultDocumentBase.
func NewResolver(documentBase string) *Resolver {
	if documentBase == "" {
		documentBase = DefaultDocumentBase
	}
	return &Resolver{documentBase: documentBase}
}

var defaultResolver = NewResolver("")

// CanOpen reports whether Resolve would produce a target, using the default resolver.
func CanOpen(md result.Metadata) bool { return defaultResolver.CanOpen(md) }

// Resolve resolves a target with the default resolver.
func Resolve(md result.Metadata) (Target, bool) { return defaultResolver.Resolve(md) }

// CanOpen reports whether any URL-bearing field is present.
func (r *Resolver) CanOpen(md result.Metadata) bool {
	return md.Deeplink != "" || md.JumpLink != "" ||
		md.VideoID != "" || md.VideoURL != "" ||
		md.PDFURL != "" || md.EPUBURL != "" || md.AudioURL != "" ||
		md.URL != "" || md.SourceURL != "" ||
		isLegacyDocument(md)
}

// Resolve picks the first applicable rule. The label depends on md.Type only.
func (r *Resolver) Resolve(md result.Metadata) (Target, bool) {
	u, kind := r.target(md)
	if kind == KindNone {
		return Target{}, false
	}
	return Target{URL: u, Label: Label(md.Type), Kind: kind}, true
}

func (r *Resolver) target(md result.Metadata) (string, Kind) {
	if md.Deeplink != "" {
		return md.Deeplink, KindDeeplink
	}
	if md.JumpLink != "" {
		return md.JumpLink, KindDeeplink
	}

	if md.VideoURL != "" || md.VideoID != "" {
		u := md.VideoURL
		if u == "" {
			u = youtubeWatchURL + url.QueryEscape(md.VideoID)
		}
		if secs, ok := offset(md); ok {
			u = withTime(u, secs)
		}
		return u, KindVideo
	}

	if md.AudioURL != "" {
		return md.AudioURL, KindAudio
	}

	if md.EPUBURL != "" && typeHas(md.Type, "book") {
		return md.EPUBURL, KindEPUB
	}

	if md.PDFURL != "" {
		return withPage(md.PDFURL, pageOf(md)), KindPDF
	}

	if isLegacyDocument(md) {
		p := md.FilePath
		if p == "" {
			p = md.Source
		}
		return withPage(r.documentPath(p), pageOf(md)), KindDocument
	}

	if md.EPUBURL != "" {
		return md.EPUBURL, KindEPUB
	}

	generic := md.URL
	if generic == "" {
		generic = md.SourceURL
	}
	if generic == "" {
		return "", KindNone
	}
	if isVideoType(md.Type) {
		if secs, ok := offset(md); ok {
			return withTime(generic, secs), KindVideo
		}
	}
	return generic, KindURL
}

// Label derives the display label from the type by substring match; check order decides ties.
func Label(typ string) string {
	switch {
	case typeHas(typ, "pdf"):
		return LabelPDF
	case isVideoType(typ):
		return LabelVideo
	case typeHas(typ, "audio"):
		return LabelAudio
	case typeHas(typ, "podcast"):
		return LabelPodcast
	default:
		return LabelResource
	}
}

func typeHas(typ, sub string) bool {
	return strings.Contains(strings.ToLower(typ), sub)
}

func isVideoType(typ string) bool {
	return typeHas(typ, "youtube") || typeHas(typ, "video")
}

// isLegacyDocument matches old PDF payloads that carry only a path or a document name.
func isLegacyDocument(md result.Metadata) bool {
	if !typeHas(md.Type, "pdf") {
		return false
	}
	return md.FilePath != "" || (md.Source != "" && md.Source != result.UnknownSource)
}

func (r *Resolver) documentPath(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "/") {
		return p
	}
	joined := strings.TrimSuffix(r.documentBase, "/") + "/" + p
	return (&url.URL{Path: joined}).EscapedPath()
}

func pageOf(md result.Metadata) int {
	if md.Page != nil && *md.Page > 0 {
		return *md.Page
	}
	return 1
}

// offset returns the playback offset in whole seconds.
func offset(md result.Metadata) (int, bool) {
	if md.TimestampSeconds != nil && validOffset(*md.TimestampSeconds) {
		return int(*md.TimestampSeconds), true
	}
	for _, v := range []any{md.Timestamp, md.StartTime} {
		if secs, ok := ParseTimestamp(v); ok {
			return int(secs), true
		}
	}
	return 0, false
}

func withPage(u string, page int) string {
	if strings.Contains(u, "#") {
		return u
	}
	return u + "#page=" + strconv.Itoa(page)
}

func withTime(raw string, secs int) string {
	base, frag, hasFrag := strings.Cut(raw, "#")
	if parsed, err := url.Parse(base); err == nil && parsed.Query().Has("t") {
		return raw
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	out := base + sep + "t=" + strconv.Itoa(secs)
	if hasFrag {
		out += "#" + frag
	}
	return out
}
