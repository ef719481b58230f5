package resolver

import (
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/newsreader/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addPredefined(t *testing.T, s *store.Store, fname string, roles ...string) *store.Definition {
	t.Helper()
	def := &store.Definition{
		Kind:         store.KindPredefined,
		AdapterKind:  "rss",
		Name:         fname,
		FName:        fname,
		Parameters:   map[string]string{"url": "https://example.com/" + fname + ".xml"},
		DefaultRoles: roles,
	}
	if err := s.StoreDefinition(def); err != nil {
		t.Fatalf("storing definition: %v", err)
	}
	return def
}

func TestResolveCreatesSetOnFirstAccess(t *testing.T) {
	s := openTestStore(t)
	r := New(s)

	resolved, err := r.Resolve("jdoe", []string{"student"}, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Set.UserID != "jdoe" || resolved.Set.Name != "default" {
		t.Errorf("unexpected set %+v", resolved.Set)
	}
	if len(resolved.Items) != 0 {
		t.Errorf("expected empty set, got %d items", len(resolved.Items))
	}
}

func TestResolveRoleGating(t *testing.T) {
	s := openTestStore(t)
	addPredefined(t, s, "student-news", "student")
	r := New(s)

	resolved, err := r.Resolve("jdoe", []string{"faculty"}, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Items) != 0 {
		t.Errorf("faculty user must not receive the student feed, got %d items", len(resolved.Items))
	}

	resolved, err = r.Resolve("asmith", []string{"student"}, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Items) != 1 {
		t.Fatalf("expected the student feed to be auto-added, got %d items", len(resolved.Items))
	}
	item := resolved.Items[0]
	if item.Definition.FName != "student-news" {
		t.Errorf("unexpected definition %+v", item.Definition)
	}
	if !item.Configuration.Displayed {
		t.Error("materialized configurations start displayed")
	}
	if item.Configuration.Kind != store.KindPredefined {
		t.Errorf("expected predefined configuration, got %q", item.Configuration.Kind)
	}
}

func TestResolveIdempotent(t *testing.T) {
	s := openTestStore(t)
	addPredefined(t, s, "campus", "student")
	r := New(s)

	first, err := r.Resolve("jdoe", []string{"student"}, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Resolve("jdoe", []string{"student"}, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Items) != 1 || len(second.Items) != 1 {
		t.Fatalf("expected exactly 1 item on both resolves, got %d then %d",
			len(first.Items), len(second.Items))
	}
	if first.Items[0].Configuration.ID != second.Items[0].Configuration.ID {
		t.Error("re-resolving must not create a new configuration")
	}
}

func TestResolveKeepsFeedAfterRoleLoss(t *testing.T) {
	s := openTestStore(t)
	addPredefined(t, s, "alumni-news", "alumni")
	r := New(s)

	resolved, _ := r.Resolve("jdoe", []string{"alumni"}, "default")
	if len(resolved.Items) != 1 {
		t.Fatalf("expected feed to be materialized, got %d items", len(resolved.Items))
	}

	// Role revoked: the materialized configuration stays.
	resolved, err := r.Resolve("jdoe", []string{"staff"}, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Items) != 1 {
		t.Errorf("role loss must not retroactively remove the configuration, got %d items", len(resolved.Items))
	}
}

func TestResolveManualHidePersists(t *testing.T) {
	s := openTestStore(t)
	addPredefined(t, s, "campus", "student")
	r := New(s)

	resolved, _ := r.Resolve("jdoe", []string{"student"}, "default")
	cfg := resolved.Items[0].Configuration
	cfg.Displayed = false
	if err := s.StoreConfiguration(&cfg); err != nil {
		t.Fatalf("hiding configuration: %v", err)
	}

	resolved, err := r.Resolve("jdoe", []string{"student"}, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resolved.Items))
	}
	if resolved.Items[0].Configuration.Displayed {
		t.Error("hidden configuration must stay hidden across resolves")
	}
}

func TestResolveOrderingAfterExisting(t *testing.T) {
	s := openTestStore(t)
	first := addPredefined(t, s, "first", "student")
	r := New(s)

	resolved, _ := r.Resolve("jdoe", []string{"student"}, "default")
	if len(resolved.Items) != 1 || resolved.Items[0].Definition.ID != first.ID {
		t.Fatalf("unexpected initial items: %+v", resolved.Items)
	}

	// A definition added later lands after the existing configuration.
	addPredefined(t, s, "second", "student")
	resolved, _ = r.Resolve("jdoe", []string{"student"}, "default")
	if len(resolved.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resolved.Items))
	}
	if resolved.Items[0].Definition.FName != "first" || resolved.Items[1].Definition.FName != "second" {
		t.Errorf("expected insertion order preserved, got %q then %q",
			resolved.Items[0].Definition.FName, resolved.Items[1].Definition.FName)
	}
}

func TestHiddenPredefinedDefinitions(t *testing.T) {
	s := openTestStore(t)
	addPredefined(t, s, "auto", "student")
	r := New(s)

	resolved, _ := r.Resolve("jdoe", []string{"student"}, "default")

	hidden, err := r.HiddenPredefinedDefinitions(resolved.Set.ID, []string{"student"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hidden) != 0 {
		t.Errorf("materialized feed must not be listed as hidden, got %+v", hidden)
	}

	// A new definition with a role the user holds appears as hidden until
	// the next resolve picks it up.
	addPredefined(t, s, "fresh", "student")
	hidden, _ = r.HiddenPredefinedDefinitions(resolved.Set.ID, []string{"student"})
	if len(hidden) != 1 || hidden[0].FName != "fresh" {
		t.Errorf("expected 'fresh' to be hidden, got %+v", hidden)
	}
}
