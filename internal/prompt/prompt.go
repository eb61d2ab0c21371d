// AngelaMos | 2026
// prompt.go

package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPlatform = errors.New("invalid platform")

type Platform int

const (
	Twitter Platform = iota + 1
	LinkedIn
	Instagram
	Facebook
)

var platformNames = [...]string{
	Twitter:   "twitter",
	LinkedIn:  "linkedin",
	Instagram: "instagram",
	Facebook:  "facebook",
}

// Platforms lists every supported platform in display order.
func Platforms() []Platform {
	return []Platform{Twitter, LinkedIn, Instagram, Facebook}
}

func (p Platform) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Platform(%d)", int(p))
	}
	return platformNames[p]
}

func (p Platform) Valid() bool {
	return p >= Twitter && p <= Facebook
}

// ParsePlatform accepts the lowercase keys used on the wire. Anything else,
// including different casing, is rejected.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms() {
		if platformNames[p] == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPlatform, s)
}

const SystemInstruction = "You are a social media expert who creates engaging posts " +
	"for different platforms. Always return posts separated by double newlines, " +
	"without any numbering or formatting."

// FormatInstruction closes every prompt. The post parser splits on blank
// lines, so this wording is part of the contract with the model.
const FormatInstruction = "Please provide exactly 3-5 different posts, each on a new line, " +
	"without numbering or bullet points. Each post should be complete and ready to publish."

const contentHeader = "\n\nContent to transform:\n"

var templates = map[Platform]string{
	Twitter: `Create 3-5 engaging Twitter posts based on the following content. Each post should:
- Be under 280 characters
- Include relevant hashtags (2-3 max)
- Be engaging and encourage interaction
- Maintain a conversational tone
- Each post should offer a different angle or highlight different aspects of the content`,

	LinkedIn: `Create 3-5 professional LinkedIn posts based on the following content. Each post should:
- Be professional yet engaging
- Include relevant hashtags (3-5 max)
- Encourage professional discussion
- Be 1-3 paragraphs long
- Each post should target different professional audiences or angles`,

	Instagram: `Create 3-5 Instagram captions based on the following content. Each caption should:
- Be engaging and visual-friendly
- Include relevant hashtags (5-10 max)
- Encourage engagement (likes, comments, shares)
- Be 1-2 paragraphs with line breaks for readability
- Each caption should have a different tone or focus`,

	Facebook: `Create 3-5 Facebook posts based on the following content. Each post should:
- Be casual and conversational
- Encourage shares and comments
- Include relevant hashtags (2-4 max)
- Be engaging for a broad audience
- Each post should appeal to different demographics or interests`,
}

func Template(p Platform) (string, error) {
	t, ok := templates[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidPlatform, p)
	}
	return t, nil
}

func Build(p Platform, content string) (string, error) {
	t, err := Template(p)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(t) + len(contentHeader) + len(content) + len(FormatInstruction) + 2)
	b.WriteString(t)
	b.WriteString(contentHeader)
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(FormatInstruction)

	return b.String(), nil
}
