package answer

import (
	"strings"
	"text/template"

	"github.com/hyperjump/kotae/internal/models"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`You are an AI assistant specializing in analyzing quarterly financial results.
Your task is to extract key insights, answer questions concisely, and present data-driven conclusions.

Example 1:
Input: What was the revenue growth in Q3?
Answer: The revenue grew by 15% in Q3, reaching $3.2 billion compared to $2.78 billion in Q2.

Example 2:
Input: How did the operating margin change?
Answer: Operating margin improved to 18.5% from 17.2% due to cost optimization.

Now respond to the following input based on context from quarterly reports:
Context:
{{.Context}}

Input: {{.Question}}
Answer:`))

// BuildContext joins chunk contents with blank lines in ranked order.
func BuildContext(chunks []*models.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		parts = append(parts, sc.Chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt fills the few-shot template with context and question.
func BuildPrompt(context, question string) string {
	var b strings.Builder
	// Execute only fails on writer errors; strings.Builder never returns one.
	_ = promptTemplate.Execute(&b, struct{ Context, Question string }{context, question})
	return b.String()
}
