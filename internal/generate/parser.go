// AngelaMos | 2026
// parser.go

package generate

import (
	"strings"
)

const postSeparator = "\n\n"

// ParsePosts splits raw model output on blank lines and drops empty
// segments. Order is kept. The count is whatever the model produced.
func ParsePosts(raw string) []string {
	posts := []string{}
	for _, segment := range strings.Split(raw, postSeparator) {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		posts = append(posts, segment)
	}
	return posts
}
