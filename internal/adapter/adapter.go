// Package adapter defines the pluggable feed retrieval capability. Concrete
// adapters are selected by the adapter kind recorded on a feed definition;
// the orchestrator never knows which variant it is talking to.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// RawEntry is one feed entry as produced by an adapter, before sanitization.
type RawEntry struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Description string // raw HTML from the feed
}

// ParseError indicates that a feed document was retrieved but could not be
// understood. Like a fetch failure, it is isolated per feed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing feed %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Adapter produces a normalized entry sequence from a definition's
// parameters. Implementations report which sanitization policies apply to
// their entries and whether the entry link should be replaced with a lazily
// fetched full story.
type Adapter interface {
	FetchEntries(ctx context.Context, params map[string]string) ([]RawEntry, error)
	TitlePolicy() string
	DescriptionPolicy() string
	FullStory() bool
}

// Registry maps adapter kinds to constructors. Definitions name a kind; the
// registry resolves it at render time.
type Registry struct {
	factories map[string]func() Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Adapter)}
}

// Register binds a kind name to an adapter constructor. Registering a kind
// twice replaces the earlier binding.
func (r *Registry) Register(kind string, factory func() Adapter) {
	r.factories[kind] = factory
}

// For returns an adapter for the given kind.
func (r *Registry) For(kind string) (Adapter, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown adapter kind %q", kind)
	}
	return factory(), nil
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
