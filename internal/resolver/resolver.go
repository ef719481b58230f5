// Package resolver computes the effective feed set for a user: the stored
// configurations of a named news set plus role-gated predefined feeds
// materialized on first sight.
package resolver

import (
	"fmt"

	"github.com/TobiSchelling/newsreader/internal/logger"
	"github.com/TobiSchelling/newsreader/internal/store"
)

// Store is the persistence surface the resolver consumes.
type Store interface {
	GetNewsSetByName(userID, name string) (*store.NewsSet, error)
	CreateNewsSet(userID, name string) (*store.NewsSet, error)
	ListConfigurations(setID int64) ([]store.Configuration, error)
	InsertConfiguration(cfg *store.Configuration) (int64, error)
	GetDefinition(definitionID int64) (*store.Definition, error)
	GetPredefinedDefinitionsForRoles(roles []string) ([]store.Definition, error)
	GetHiddenPredefinedDefinitions(setID int64, roles []string) ([]store.Definition, error)
}

// Item pairs a configuration with its definition.
type Item struct {
	Configuration store.Configuration
	Definition    store.Definition
}

// ResolvedSet is a news set with its full, ordered configuration list.
type ResolvedSet struct {
	Set   store.NewsSet
	Items []Item
}

// Resolver merges predefined and user-defined configurations into a user's
// effective feed set.
type Resolver struct {
	st Store
}

// New creates a resolver over the given store.
func New(st Store) *Resolver {
	return &Resolver{st: st}
}

// Resolve returns the user's news set by name, creating it on first access
// and materializing configurations for every predefined definition the user's
// roles grant but the set does not hold yet. Re-running with an unchanged
// role set inserts nothing: the uniqueness-checked insert makes resolution
// idempotent, also under concurrent renders for the same user. A definition
// whose granting role the user has since lost keeps its configuration — once
// materialized, visibility belongs to the user.
func (r *Resolver) Resolve(userID string, roles []string, setName string) (*ResolvedSet, error) {
	set, err := r.st.GetNewsSetByName(userID, setName)
	if err != nil {
		return nil, err
	}
	if set == nil {
		if set, err = r.st.CreateNewsSet(userID, setName); err != nil {
			return nil, err
		}
	}

	cfgs, err := r.st.ListConfigurations(set.ID)
	if err != nil {
		return nil, err
	}

	configured := make(map[int64]bool, len(cfgs))
	for _, cfg := range cfgs {
		configured[cfg.DefinitionID] = true
	}

	defs, err := r.st.GetPredefinedDefinitionsForRoles(roles)
	if err != nil {
		return nil, err
	}

	materialized := false
	for _, def := range defs {
		if configured[def.ID] {
			continue
		}
		id, err := r.st.InsertConfiguration(&store.Configuration{
			SetID:        set.ID,
			DefinitionID: def.ID,
			Kind:         store.KindPredefined,
			Displayed:    true,
		})
		if err != nil {
			return nil, err
		}
		if id != 0 {
			materialized = true
			logger.Log.WithFields(map[string]any{
				"user":       userID,
				"set":        setName,
				"definition": def.FName,
			}).Debug("Materialized predefined feed")
		}
	}

	if materialized {
		if cfgs, err = r.st.ListConfigurations(set.ID); err != nil {
			return nil, err
		}
	}

	resolved := &ResolvedSet{Set: *set}
	for _, cfg := range cfgs {
		def, err := r.st.GetDefinition(cfg.DefinitionID)
		if err != nil {
			return nil, err
		}
		if def == nil {
			return nil, fmt.Errorf("configuration %d references missing definition %d", cfg.ID, cfg.DefinitionID)
		}
		resolved.Items = append(resolved.Items, Item{Configuration: cfg, Definition: *def})
	}
	return resolved, nil
}

// HiddenPredefinedDefinitions lists predefined definitions the given roles
// may see that have no configuration in the set yet — the candidates the user
// can still add by hand.
func (r *Resolver) HiddenPredefinedDefinitions(setID int64, roles []string) ([]store.Definition, error) {
	return r.st.GetHiddenPredefinedDefinitions(setID, roles)
}
