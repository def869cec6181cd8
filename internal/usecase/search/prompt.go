package search

import (
	"strings"

	"github.com/kailas-cloud/seeker/internal/domain/search/result"
)

// FallbackAnswer is returned when the language model fails or answers with nothing.
const FallbackAnswer = "I couldn't generate a response based on the available information."

// buildContext joins the passages of the first n results with blank lines.
func buildContext(results []result.Result, n int) string {
	if n > len(results) {
		n = len(results)
	}
	parts := make([]string, 0, n)
	for _, r := range results[:n] {
		parts = append(parts, r.Content())
	}
	return strings.Join(parts, "\n\n")
}

func userPrompt(query, context string) string {
	var b strings.Builder
	b.WriteString("Sources:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer the question from the sources above. Mention the document, page or ")
	b.WriteString("teaching you draw on where you can.")
	return b.String()
}
