// AngelaMos | 2026
// mock.go

package llm

import (
	"context"
	"fmt"
	"strings"
)

const mockExcerptRunes = 80

// MockGenerator answers locally with three posts built from the start of the
// content section. Used for development without a model key.
type MockGenerator struct{}

func (MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	excerpt := mockExcerpt(prompt)

	return fmt.Sprintf(
		"Fresh take: %s #socialai\n\nWorth a read: %s #content\n\nQuick summary: %s #draft",
		excerpt, excerpt, excerpt,
	), nil
}

func mockExcerpt(prompt string) string {
	const marker = "Content to transform:\n"

	body := prompt
	if i := strings.Index(prompt, marker); i >= 0 {
		body = prompt[i+len(marker):]
	}
	if i := strings.Index(body, "\n\n"); i >= 0 {
		body = body[:i]
	}

	body = strings.Join(strings.Fields(body), " ")

	runes := []rune(body)
	if len(runes) > mockExcerptRunes {
		return string(runes[:mockExcerptRunes]) + "..."
	}
	return body
}
