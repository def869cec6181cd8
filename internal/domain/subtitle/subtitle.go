// Package subtitle converts SubRip subtitles to WebVTT.
package subtitle

import (
	"regexp"
	"strings"
)

// Header opens every WebVTT document.
const Header = "WEBVTT\n\n"

var indexLine = regexp.MustCompile(`^\d+$`)

// SRTToVTT converts SRT text to WebVTT. Cue numbers are dropped, timing lines use a
// period as the millisecond separator, and cues are separated by one blank line.
func SRTToVTT(srt string) string {
	srt = strings.ReplaceAll(srt, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(srt), "\n")

	var b strings.Builder
	b.WriteString(Header)

	cues := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		switch {
		case line == "", indexLine.MatchString(line):
			continue
		case strings.Contains(line, "-->"):
			if cues > 0 {
				b.WriteByte('\n')
			}
			cues++
			b.WriteString(strings.ReplaceAll(line, ",", "."))
		default:
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
