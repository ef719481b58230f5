package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func predefinedDef(name, fname string, roles ...string) *Definition {
	return &Definition{
		Kind:         KindPredefined,
		AdapterKind:  "rss",
		Name:         name,
		FName:        fname,
		Parameters:   map[string]string{"url": "https://example.com/" + fname + ".xml"},
		DefaultRoles: roles,
	}
}

func userDef(name, owner string) *Definition {
	return &Definition{
		Kind:        KindUser,
		AdapterKind: "rss",
		Name:        name,
		Owner:       owner,
		Parameters:  map[string]string{"url": "https://example.com/user.xml"},
	}
}

func TestCreateNewsSetIdempotent(t *testing.T) {
	s := openTestStore(t)

	first, err := s.CreateNewsSet("jdoe", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.CreateNewsSet("jdoe", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same set, got %d and %d", first.ID, second.ID)
	}

	other, _ := s.CreateNewsSet("jdoe", "research")
	if other.ID == first.ID {
		t.Error("expected distinct set for distinct name")
	}
}

func TestGetNewsSetByNameMissing(t *testing.T) {
	s := openTestStore(t)
	set, err := s.GetNewsSetByName("jdoe", "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set != nil {
		t.Error("expected nil for missing set")
	}
}

func TestStoreDefinitionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	def := predefinedDef("Campus News", "campus-news", "student", "staff")
	if err := s.StoreDefinition(def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID == 0 {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetDefinition(def.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Campus News" || got.FName != "campus-news" {
		t.Errorf("unexpected definition: %+v", got)
	}
	if got.Parameters["url"] == "" {
		t.Error("expected url parameter to survive the round trip")
	}
	if len(got.DefaultRoles) != 2 {
		t.Errorf("expected 2 default roles, got %d", len(got.DefaultRoles))
	}

	got.Name = "Campus Headlines"
	if err := s.StoreDefinition(got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, _ := s.GetDefinition(def.ID)
	if updated.Name != "Campus Headlines" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
}

func TestGetPredefinedDefinitionsForRoles(t *testing.T) {
	s := openTestStore(t)

	students := predefinedDef("Student News", "student-news", "student")
	faculty := predefinedDef("Faculty News", "faculty-news", "faculty")
	s.StoreDefinition(students)
	s.StoreDefinition(faculty)

	defs, err := s.GetPredefinedDefinitionsForRoles([]string{"student"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 || defs[0].FName != "student-news" {
		t.Errorf("expected only student-news, got %+v", defs)
	}

	defs, _ = s.GetPredefinedDefinitionsForRoles([]string{"alumni"})
	if len(defs) != 0 {
		t.Errorf("expected no definitions for alumni, got %d", len(defs))
	}
}

func TestInsertConfigurationDuplicate(t *testing.T) {
	s := openTestStore(t)

	def := predefinedDef("News", "news", "student")
	s.StoreDefinition(def)
	set, _ := s.CreateNewsSet("jdoe", "default")

	cfg := &Configuration{SetID: set.ID, DefinitionID: def.ID, Kind: KindPredefined, Displayed: true}
	id, err := s.InsertConfiguration(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero configuration ID")
	}

	dup := &Configuration{SetID: set.ID, DefinitionID: def.ID, Kind: KindPredefined, Displayed: true}
	id, err = s.InsertConfiguration(dup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate (set, definition) pair")
	}

	cfgs, _ := s.ListConfigurations(set.ID)
	if len(cfgs) != 1 {
		t.Errorf("expected 1 configuration, got %d", len(cfgs))
	}
}

func TestInsertConfigurationAssignsPositions(t *testing.T) {
	s := openTestStore(t)

	set, _ := s.CreateNewsSet("jdoe", "default")
	for _, fname := range []string{"a", "b", "c"} {
		def := predefinedDef(fname, fname, "student")
		s.StoreDefinition(def)
		s.InsertConfiguration(&Configuration{
			SetID: set.ID, DefinitionID: def.ID, Kind: KindPredefined, Displayed: true,
		})
	}

	cfgs, err := s.ListConfigurations(set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, cfg := range cfgs {
		if cfg.Position != i {
			t.Errorf("expected position %d, got %d", i, cfg.Position)
		}
	}
}

func TestStoreConfigurationDisplayed(t *testing.T) {
	s := openTestStore(t)

	def := predefinedDef("News", "news", "student")
	s.StoreDefinition(def)
	set, _ := s.CreateNewsSet("jdoe", "default")
	cfg := &Configuration{SetID: set.ID, DefinitionID: def.ID, Kind: KindPredefined, Displayed: true}
	s.InsertConfiguration(cfg)

	cfg.Displayed = false
	if err := s.StoreConfiguration(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.GetConfiguration(cfg.ID)
	if got.Displayed {
		t.Error("expected displayed to be false")
	}
}

func TestDeleteConfigurationKeepsPredefinedDefinition(t *testing.T) {
	s := openTestStore(t)

	def := predefinedDef("News", "news", "student")
	s.StoreDefinition(def)
	set, _ := s.CreateNewsSet("jdoe", "default")
	cfg := &Configuration{SetID: set.ID, DefinitionID: def.ID, Kind: KindPredefined, Displayed: true}
	s.InsertConfiguration(cfg)

	if err := s.DeleteConfiguration(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, _ := s.GetConfiguration(cfg.ID); got != nil {
		t.Error("expected configuration to be gone")
	}
	if got, _ := s.GetDefinition(def.ID); got == nil {
		t.Error("expected predefined definition to survive")
	}
}

func TestDeleteConfigurationRemovesOrphanedUserDefinition(t *testing.T) {
	s := openTestStore(t)

	def := userDef("My Feed", "jdoe")
	s.StoreDefinition(def)
	set, _ := s.CreateNewsSet("jdoe", "default")
	cfg := &Configuration{SetID: set.ID, DefinitionID: def.ID, Kind: KindUser, Displayed: true, Owner: "jdoe"}
	s.InsertConfiguration(cfg)

	if err := s.DeleteConfiguration(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, _ := s.GetDefinition(def.ID); got != nil {
		t.Error("expected orphaned user definition to be deleted")
	}
}

func TestGetHiddenPredefinedDefinitions(t *testing.T) {
	s := openTestStore(t)

	visible := predefinedDef("Visible", "visible", "student")
	configured := predefinedDef("Configured", "configured", "student")
	otherRole := predefinedDef("Faculty Only", "faculty-only", "faculty")
	s.StoreDefinition(visible)
	s.StoreDefinition(configured)
	s.StoreDefinition(otherRole)

	set, _ := s.CreateNewsSet("jdoe", "default")
	s.InsertConfiguration(&Configuration{
		SetID: set.ID, DefinitionID: configured.ID, Kind: KindPredefined, Displayed: true,
	})

	hidden, err := s.GetHiddenPredefinedDefinitions(set.ID, []string{"student"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hidden) != 1 || hidden[0].FName != "visible" {
		t.Errorf("expected only 'visible' to be hidden, got %+v", hidden)
	}
}
