package gemini

import (
	"context"
	"strings"
)

// contentGenerator is the slice of Generator the agents need; stubbed in
// tests.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// extractJSON strips markdown fences Gemini tends to wrap JSON output in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// clampScore forces a match score into the [0,100] range the rest of the
// system relies on.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func fillTemplate(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}
