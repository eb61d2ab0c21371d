// AngelaMos | 2026
// publish.go

package wix

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

const attribution = "*Generated by SocialAI - AI-powered social media content generator*"

var whitespace = regexp.MustCompile(`\s+`)

// Slugify lowercases the title and joins whitespace runs with '-'.
func Slugify(title string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
}

// ComposeMarkdown lays out generated posts for a blog body: a heading, one
// paragraph per non-blank line and an attribution footer.
func ComposeMarkdown(content, platform string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Generated Social Media Content for %s\n\n", platform)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(attribution)
	b.WriteString("\n")
	return b.String()
}

func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

type Publication struct {
	Post        *BlogPost
	Markdown    string
	PreviewHTML string
}

// PublishSocialContent creates a draft blog post named after the platform
// and title. The Wix body is the markdown text; the HTML rendering is
// returned for previews.
func (c *Client) PublishSocialContent(
	ctx context.Context,
	title, content, platform string,
) (*Publication, error) {
	md := ComposeMarkdown(content, platform)

	html, err := RenderHTML(md)
	if err != nil {
		return nil, err
	}

	post, err := c.CreateBlogPost(ctx, BlogPost{
		Title:       fmt.Sprintf("%s Content: %s", platform, title),
		ContentText: md,
		Slug:        platform + "-" + Slugify(title),
	})
	if err != nil {
		return nil, err
	}

	return &Publication{Post: post, Markdown: md, PreviewHTML: html}, nil
}
