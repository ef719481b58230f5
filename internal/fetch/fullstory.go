package fetch

import (
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Resolver retrieves full remote page text for feed entries whose adapter
// replaces the entry link with a full story.
type Resolver struct {
	client *Client
}

// NewResolver creates a full-story resolver on top of the given client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Handle is a lazy reference to remote full-story content. Constructing one
// performs no I/O; every Resolve call issues exactly one GET, with no caching
// across calls.
type Handle struct {
	URL string

	resolver *Resolver
}

// Handle wraps a source URL without touching the network.
func (r *Resolver) Handle(storyURL string) *Handle {
	return &Handle{URL: storyURL, resolver: r}
}

// Resolve fetches the page and extracts its readable text. A failed GET
// returns a *FetchError; pages readability cannot digest fall back to the raw
// response body.
func (h *Handle) Resolve(ctx context.Context) (string, error) {
	body, err := h.resolver.client.Get(ctx, h.URL)
	if err != nil {
		return "", err
	}

	parsedURL, _ := url.Parse(h.URL)
	article, err := readability.FromReader(strings.NewReader(body), parsedURL)
	if err != nil {
		return body, nil
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return body, nil
	}
	return text, nil
}
