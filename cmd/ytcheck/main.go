package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kidolearn/kidolearn-api/internal/youtube"
)

// ytcheck verifies that a YouTube Data API key works before it is handed
// to the mobile app. The backend itself never calls the Data API.
func main() {
	query := flag.String("query", "cartoons for kids", "Search query to run")
	max := flag.Int("max", 5, "Maximum number of results")
	flag.Parse()

	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: YOUTUBE_API_KEY is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := youtube.NewSearchClient(apiKey)
	results, err := client.Search(ctx, *query, *max)
	if err != nil {
		var apiErr *youtube.APIError
		if errors.As(err, &apiErr) {
			if apiErr.QuotaExceeded() {
				fmt.Fprintf(os.Stderr, "Quota exhausted: %s\n", apiErr.Message)
				fmt.Fprintln(os.Stderr, "The key is valid but has no quota left today.")
			} else {
				fmt.Fprintf(os.Stderr, "API rejected the request (%d %s): %s\n", apiErr.Code, apiErr.Reason, apiErr.Message)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("OK: %d result(s) for %q\n\n", len(results), *query)
	for _, r := range results {
		fmt.Printf("  %-12s  %s (%s)\n", r.VideoID, r.Title, r.ChannelTitle)
	}
}
