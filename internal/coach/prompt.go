package coach

import (
	"strings"

	"github.com/verda0/verda/internal/rag"
)

// buildPrompt renders the coaching prompt with the retrieved passages as
// grounding context. With no passages the knowledge section is left empty
// rather than omitted, so the model still sees the same instruction shape.
func buildPrompt(message string, passages []rag.Passage) string {
	var b strings.Builder
	b.WriteString("You are a sustainability coach.\n")
	b.WriteString("Use this knowledge to help the user.\n\n")
	b.WriteString("Knowledge:\n")
	for _, p := range passages {
		b.WriteString(p.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nUser: ")
	b.WriteString(message)
	return b.String()
}
