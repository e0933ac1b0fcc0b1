// Package cli provides terminal output helpers for banglaqa.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/banglaqa/internal/qa"
	"github.com/hyperjump/banglaqa/pkg/utils"
)

// AnswerPrefix precedes every answer in text output.
const AnswerPrefix = "উত্তর: "

// OutputFormat is the format for answer output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is one JSON object per answer for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a configured format name to an OutputFormat. Unknown names are text.
func ParseOutputFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

// AnswerOutput is the JSON shape of one answered question.
type AnswerOutput struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Repaired bool           `json:"repaired"`
	Error    string         `json:"error,omitempty"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput is one retrieved segment in JSON output.
type SourceOutput struct {
	ID      string  `json:"id"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

// WriteAnswer writes res to w in the given format.
func WriteAnswer(w io.Writer, res *qa.Result, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return json.NewEncoder(w).Encode(NewAnswerOutput(res))
	default:
		_, err := fmt.Fprintf(w, "\n%s%s\n\n", AnswerPrefix, res.Answer)
		return err
	}
}

// NewAnswerOutput converts a result to its JSON shape.
func NewAnswerOutput(res *qa.Result) *AnswerOutput {
	out := &AnswerOutput{
		Question: res.Question,
		Answer:   res.Answer,
		Repaired: res.Repaired,
		Sources:  make([]SourceOutput, 0, len(res.Sources)),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	for _, hit := range res.Sources {
		if hit.Segment == nil {
			continue
		}
		out.Sources = append(out.Sources, SourceOutput{
			ID:      hit.Segment.ID,
			Page:    hit.Segment.Page,
			Score:   hit.Score,
			Excerpt: utils.Truncate(hit.Segment.Content, 200),
		})
	}
	return out
}
