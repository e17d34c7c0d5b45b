package repository

import (
	"context"
	"time"
)

// PageFetcher defines the contract for retrieving a remote payload over HTTP.
type PageFetcher interface {
	// Fetch returns the response body. Non-2xx responses are errors.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageRenderer defines the contract for script-rendered page retrieval.
type PageRenderer interface {
	// Render loads url in a browser session, waits for client-side rendering
	// and returns the resulting markup. The session is released before returning.
	Render(ctx context.Context, url string, wait time.Duration) (string, error)
}
