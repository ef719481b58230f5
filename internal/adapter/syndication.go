package adapter

import (
	"context"
	"errors"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/newsreader/internal/fetch"
	"github.com/TobiSchelling/newsreader/internal/sanitize"
)

// Adapter kinds for standard syndication formats (RSS/Atom/JSON Feed).
// The full-story variant replaces each entry link with a lazy remote fetch.
const (
	KindSyndication          = "rss"
	KindSyndicationFullStory = "rss-fullstory"
)

// SyndicationAdapter retrieves a syndication document from the "url"
// parameter and normalizes its items.
type SyndicationAdapter struct {
	client     *fetch.Client
	maxPerFeed int
	fullStory  bool
}

// NewSyndicationAdapter creates the plain syndication adapter.
func NewSyndicationAdapter(client *fetch.Client, maxPerFeed int) *SyndicationAdapter {
	return &SyndicationAdapter{client: client, maxPerFeed: maxPerFeed}
}

// NewFullStorySyndicationAdapter creates the variant whose entries carry a
// full-story handle instead of a link.
func NewFullStorySyndicationAdapter(client *fetch.Client, maxPerFeed int) *SyndicationAdapter {
	return &SyndicationAdapter{client: client, maxPerFeed: maxPerFeed, fullStory: true}
}

// RegisterDefaults registers both syndication variants on the registry.
func RegisterDefaults(reg *Registry, client *fetch.Client, maxPerFeed int) {
	reg.Register(KindSyndication, func() Adapter {
		return NewSyndicationAdapter(client, maxPerFeed)
	})
	reg.Register(KindSyndicationFullStory, func() Adapter {
		return NewFullStorySyndicationAdapter(client, maxPerFeed)
	})
}

// FetchEntries retrieves and parses the feed. Network failures surface as
// *fetch.FetchError, malformed documents as *ParseError.
func (s *SyndicationAdapter) FetchEntries(ctx context.Context, params map[string]string) ([]RawEntry, error) {
	feedURL := params["url"]
	if feedURL == "" {
		return nil, &ParseError{Err: errors.New("definition has no url parameter")}
	}

	body, err := s.client.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, &ParseError{URL: feedURL, Err: err}
	}

	var entries []RawEntry
	for _, item := range feed.Items {
		if s.maxPerFeed > 0 && len(entries) >= s.maxPerFeed {
			break
		}

		entry := toRawEntry(item)
		if entry == nil {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *SyndicationAdapter) TitlePolicy() string {
	return sanitize.PolicyTitle
}

func (s *SyndicationAdapter) DescriptionPolicy() string {
	return sanitize.PolicyDescription
}

func (s *SyndicationAdapter) FullStory() bool {
	return s.fullStory
}

func toRawEntry(item *gofeed.Item) *RawEntry {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	link := item.Link
	if link == "" {
		link = item.GUID
	}

	entry := RawEntry{Title: title, Link: link}

	if item.PublishedParsed != nil {
		entry.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.PublishedAt = *item.UpdatedParsed
	}

	if item.Description != "" {
		entry.Description = item.Description
	} else if item.Content != "" {
		entry.Description = item.Content
	}

	return &entry
}
