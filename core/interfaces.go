// Package core defines the shared value types and pipeline interfaces for RadioPipe.
// Each stage of the pipeline is a small, testable interface.
package core

import "context"

// FetchResult holds the raw body and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves a raw upstream document (XML or JSON) from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Converter turns an HTML-ish program fragment into plain text with light
// Markdown emphasis. Implementations never fail; unparseable input comes back
// as-is.
type Converter interface {
	ConvertFragment(fragment string) string
}

// Renderer converts a match into a document for one artist.
type Renderer interface {
	Render(m Match) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}

// Sink receives every match produced by a cycle.
type Sink interface {
	Put(ctx context.Context, m Match) error
}
