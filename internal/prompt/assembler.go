// Package prompt builds the text sent to the generation model from retrieved
// context and the user's question.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bull/rag-pipeline/internal/domain"
)

// Preamble instructs the model to ground its answer in the supplied context.
const Preamble = `You are a helpful assistant. Answer the question based on the context provided below.
If the answer is not in the context, say "I don't have enough information to answer that."
When possible, mention which source the information comes from.`

// NoContextNotice is included verbatim when retrieval returned nothing.
// Policy: the model may answer from general knowledge but must disclose that
// the knowledge base contained nothing relevant.
const NoContextNotice = "No relevant context was found in the knowledge base."

// Assemble produces the full prompt: preamble, labeled context chunks in
// result order, then the verbatim question.
func Assemble(question string, chunks []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(Preamble)
	b.WriteString("\n\n")

	if len(chunks) == 0 {
		b.WriteString(NoContextNotice)
		b.WriteString("\nAnswer from general knowledge if you can, and state that the knowledge base contained nothing relevant; otherwise decline.")
	} else {
		b.WriteString("Context:\n")
		for i, chunk := range chunks {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "[Source %d: %s (chunk %d)]\n%s", i+1, chunk.SourceID, chunk.Index, chunk.Text)
		}
	}

	fmt.Fprintf(&b, "\n\nQuestion: %s\n\nAnswer:", question)
	return b.String()
}
