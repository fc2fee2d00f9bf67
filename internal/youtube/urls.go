// Package youtube builds playback URLs for YouTube videos and wraps the
// Data API search call used by diagnostics.
package youtube

import (
	"fmt"
	"regexp"
)

const (
	watchBaseURL         = "https://www.youtube.com/watch"
	embedBaseURL         = "https://www.youtube.com/embed"
	nocookieEmbedBaseURL = "https://www.youtube-nocookie.com/embed"

	// Player parameters shared by both embed variants: start playback
	// immediately, keep it inline on mobile, suppress unrelated videos,
	// show the controls.
	playerParams = "autoplay=1&playsinline=1&rel=0&controls=1"

	maxVideoIDLength = 64
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Links is the full set of playback URLs for one video id.
type Links struct {
	YouTubeID string `json:"youtubeId"`
	EmbedURL  string `json:"embedUrl"`
	IframeURL string `json:"iframeUrl"`
	WatchURL  string `json:"watchUrl"`
}

// ValidVideoID reports whether id is usable as a YouTube video reference.
func ValidVideoID(id string) bool {
	return id != "" && len(id) <= maxVideoIDLength && videoIDPattern.MatchString(id)
}

// ResolveLinks maps a video id to its playback URLs. Pure computation,
// no I/O. Callers validate the id first.
func ResolveLinks(id string) Links {
	return Links{
		YouTubeID: id,
		EmbedURL:  fmt.Sprintf("%s/%s?%s", embedBaseURL, id, playerParams),
		IframeURL: fmt.Sprintf("%s/%s?%s", nocookieEmbedBaseURL, id, playerParams),
		WatchURL:  fmt.Sprintf("%s?v=%s", watchBaseURL, id),
	}
}
