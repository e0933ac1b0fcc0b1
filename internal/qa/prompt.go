package qa

import (
	"strings"

	"github.com/hyperjump/banglaqa/internal/models"
)

// DontKnowAnswer is the sentence the model is told to use when the context has no answer.
const DontKnowAnswer = "আমি দুঃখিত, আমি এই প্রশ্নের উত্তর জানি না।"

const promptHeader = `You are a helpful assistant that answers questions in Bengali language.
Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say "` + DontKnowAnswer + `" (I'm sorry, I don't know the answer to this question.)
Always answer in Bengali language.`

// BuildPrompt composes the generation prompt: instructions, the retrieved segments joined
// by blank lines, then the question.
func BuildPrompt(hits []models.ScoredSegment, question string) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Segment == nil {
			continue
		}
		parts = append(parts, h.Segment.Content)
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nপ্রসঙ্গ (Context):\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	b.WriteString("\n\nপ্রশ্ন (Question):\n")
	b.WriteString(question)
	b.WriteString("\n\nউত্তর (Answer) in Bengali:")
	return b.String()
}

// TranslationPrompt asks the model to restate a non-Bengali answer in Bengali.
func TranslationPrompt(answer string) string {
	return "Please translate this answer to Bengali: " + answer
}
