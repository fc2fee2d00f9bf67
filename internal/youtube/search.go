package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const searchBaseURL = "https://www.googleapis.com/youtube/v3/search"

// SearchClient calls the YouTube Data API v3 search endpoint. Only the
// ytcheck diagnostic uses it; the served API never talks to YouTube.
type SearchClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewSearchClient(apiKey string) *SearchClient {
	return &SearchClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type SearchResult struct {
	VideoID      string
	Title        string
	ChannelTitle string
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// Search runs a strict-safe-search video query.
func (c *SearchClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("safeSearch", "strict")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search API: %w", err)
	}
	defer resp.Body.Close()

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if parsed.Error != nil {
		reason := ""
		if len(parsed.Error.Errors) > 0 {
			reason = parsed.Error.Errors[0].Reason
		}
		return nil, &APIError{Code: parsed.Error.Code, Reason: reason, Message: parsed.Error.Message}
	}

	results := make([]SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, SearchResult{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return results, nil
}

// APIError is a structured Data API failure. Reason separates bad keys
// from exhausted quota.
type APIError struct {
	Code    int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube api error %d (%s): %s", e.Code, e.Reason, e.Message)
}

func (e *APIError) QuotaExceeded() bool {
	return e.Reason == "quotaExceeded" || e.Reason == "rateLimitExceeded"
}
