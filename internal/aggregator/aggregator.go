// Package aggregator orchestrates feed-set resolution, concurrent feed
// retrieval, sanitization, and full-story substitution into a rendered news
// set.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/TobiSchelling/newsreader/internal/adapter"
	"github.com/TobiSchelling/newsreader/internal/fetch"
	"github.com/TobiSchelling/newsreader/internal/logger"
	"github.com/TobiSchelling/newsreader/internal/resolver"
	"github.com/TobiSchelling/newsreader/internal/sanitize"
	"github.com/TobiSchelling/newsreader/internal/store"
)

// Entry is one sanitized feed entry ready for presentation. When the feed's
// adapter is a full-story variant, Link is empty and FullStory carries the
// lazy handle instead.
type Entry struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Summary     string
	FullStory   *fetch.Handle
}

// RenderedFeed is the outcome for one configuration: its entries on success,
// or the recorded error with no entries. One feed's failure never touches the
// others.
type RenderedFeed struct {
	Configuration store.Configuration
	Definition    store.Definition
	Entries       []Entry
	Err           error
}

// RenderedSet is the assembled model for a news set, feeds in configuration
// order.
type RenderedSet struct {
	Set   store.NewsSet
	Feeds []RenderedFeed
}

// WhitelistFunc decides whether a configuration may be rendered in the
// current context. Configurations it rejects are silently skipped.
type WhitelistFunc func(cfg store.Configuration, def store.Definition) bool

// AllowAll is the permissive whitelist.
func AllowAll(store.Configuration, store.Definition) bool { return true }

// KindWhitelist permits only configurations whose definition uses one of the
// given adapter kinds.
func KindWhitelist(kinds []string) WhitelistFunc {
	allowed := make(map[string]bool, len(kinds))
	for _, kind := range kinds {
		allowed[kind] = true
	}
	return func(_ store.Configuration, def store.Definition) bool {
		return allowed[def.AdapterKind]
	}
}

// Options bound the concurrent fetch fan-out.
type Options struct {
	MaxParallel int           // concurrent feed fetches; 0 means 8
	Timeout     time.Duration // per-feed fetch timeout; 0 means 15s
	Whitelist   WhitelistFunc // nil means AllowAll
}

// Aggregator renders news sets.
type Aggregator struct {
	resolver    *resolver.Resolver
	registry    *adapter.Registry
	sanitizer   *sanitize.Sanitizer
	stories     *fetch.Resolver
	whitelist   WhitelistFunc
	maxParallel int
	timeout     time.Duration
}

// New creates an aggregator.
func New(res *resolver.Resolver, reg *adapter.Registry, san *sanitize.Sanitizer, stories *fetch.Resolver, opts Options) *Aggregator {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Whitelist == nil {
		opts.Whitelist = AllowAll
	}
	return &Aggregator{
		resolver:    res,
		registry:    reg,
		sanitizer:   san,
		stories:     stories,
		whitelist:   opts.Whitelist,
		maxParallel: opts.MaxParallel,
		timeout:     opts.Timeout,
	}
}

// Render resolves the user's news set and fetches every displayed,
// whitelisted feed concurrently. Feeds are fetched independently with a
// per-feed timeout; a failure is recorded on its RenderedFeed and the rest
// proceed. Cancelling ctx abandons in-flight fetches and discards partial
// results.
func (a *Aggregator) Render(ctx context.Context, userID string, roles []string, setName string) (*RenderedSet, error) {
	resolved, err := a.resolver.Resolve(userID, roles, setName)
	if err != nil {
		return nil, err
	}

	var visible []resolver.Item
	for _, item := range resolved.Items {
		if item.Configuration.Displayed && a.whitelist(item.Configuration, item.Definition) {
			visible = append(visible, item)
		}
	}

	feeds := make([]RenderedFeed, len(visible))
	sem := make(chan struct{}, a.maxParallel)
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i, item := range visible {
		wg.Add(1)
		go func(i int, item resolver.Item) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				feeds[i] = RenderedFeed{Configuration: item.Configuration, Definition: item.Definition, Err: ctx.Err()}
				return
			}

			feeds[i] = a.renderFeed(ctx, item)
		}(i, item)
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		// Cancelled render: discard partial results.
		return nil, err
	}

	return &RenderedSet{Set: resolved.Set, Feeds: feeds}, nil
}

// renderFeed fetches and transforms one configuration's entries.
func (a *Aggregator) renderFeed(ctx context.Context, item resolver.Item) RenderedFeed {
	feed := RenderedFeed{Configuration: item.Configuration, Definition: item.Definition}

	ad, err := a.registry.For(item.Definition.AdapterKind)
	if err != nil {
		feed.Err = err
		return feed
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := ad.FetchEntries(fetchCtx, item.Definition.Parameters)
	if err != nil {
		logger.Log.WithFields(map[string]any{
			"definition": item.Definition.Name,
			"kind":       item.Definition.AdapterKind,
			"error":      err.Error(),
		}).Warn("Feed fetch failed")
		feed.Err = err
		return feed
	}

	for _, r := range raw {
		entry := Entry{
			Title:       a.sanitizer.Sanitize(r.Title, ad.TitlePolicy()),
			Summary:     a.sanitizer.Sanitize(r.Description, ad.DescriptionPolicy()),
			PublishedAt: r.PublishedAt,
			Link:        r.Link,
		}
		if ad.FullStory() && r.Link != "" {
			entry.FullStory = a.stories.Handle(r.Link)
			entry.Link = ""
		}
		feed.Entries = append(feed.Entries, entry)
	}
	return feed
}
