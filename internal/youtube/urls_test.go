package youtube

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLinks(t *testing.T) {
	links := ResolveLinks("abc123")

	assert.Equal(t, "abc123", links.YouTubeID)
	assert.Contains(t, links.EmbedURL, "/embed/abc123")
	assert.Contains(t, links.IframeURL, "youtube-nocookie.com/embed/abc123")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", links.WatchURL)
}

func TestResolveLinksPlayerParams(t *testing.T) {
	links := ResolveLinks("dQw4w9WgXcQ")

	for _, u := range []string{links.EmbedURL, links.IframeURL} {
		assert.Contains(t, u, "autoplay=1")
		assert.Contains(t, u, "playsinline=1")
		assert.Contains(t, u, "rel=0")
		assert.Contains(t, u, "controls=1")
	}

	// The canonical watch link carries no player parameters.
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", links.WatchURL)
}

func TestValidVideoID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"standard id", "dQw4w9WgXcQ", true},
		{"short id", "abc123", true},
		{"underscore and dash", "a_b-C", true},
		{"empty", "", false},
		{"spaces", "abc 123", false},
		{"query injection", "abc?rel=1", false},
		{"path traversal", "../../etc", false},
		{"max length", strings.Repeat("a", 64), true},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidVideoID(tt.id))
		})
	}
}
