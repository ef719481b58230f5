// Package prefs exposes the configuration mutation entry points: adding and
// removing feeds, toggling visibility, and editing definitions, each guarded
// by an ownership or administrator check.
package prefs

import (
	"errors"
	"fmt"

	"github.com/TobiSchelling/newsreader/internal/logger"
	"github.com/TobiSchelling/newsreader/internal/store"
)

// Identity is the request-scoped caller identity, passed explicitly through
// the call chain.
type Identity struct {
	UserID string
	Roles  []string
}

// AuthorizationError indicates a mutation attempted without permission.
// No state changes when it is returned.
type AuthorizationError struct {
	Actor  string
	Action string
	Target int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %q is not allowed to %s %d", e.Actor, e.Action, e.Target)
}

// Store is the persistence surface the service consumes.
type Store interface {
	GetNewsSet(setID int64) (*store.NewsSet, error)
	GetConfiguration(configID int64) (*store.Configuration, error)
	InsertConfiguration(cfg *store.Configuration) (int64, error)
	StoreConfiguration(cfg *store.Configuration) error
	DeleteConfiguration(cfg *store.Configuration) error
	GetDefinition(definitionID int64) (*store.Definition, error)
	StoreDefinition(def *store.Definition) error
}

// Service applies feed-set mutations on behalf of a user.
type Service struct {
	st        Store
	adminRole string
}

// New creates the preferences service. adminRole is the role allowed to edit
// predefined definitions.
func New(st Store, adminRole string) *Service {
	return &Service{st: st, adminRole: adminRole}
}

// AddUserFeed creates a user-defined definition from a URL and registers it
// at the end of the set. An empty adapterKind defaults to plain syndication.
func (s *Service) AddUserFeed(id Identity, setID int64, name, feedURL, adapterKind string) (*store.Configuration, error) {
	if name == "" || feedURL == "" {
		return nil, errors.New("feed name and url are required")
	}
	if adapterKind == "" {
		adapterKind = "rss"
	}

	if err := s.authorizeSet(id, setID, "add a feed to set"); err != nil {
		return nil, err
	}

	def := &store.Definition{
		Kind:        store.KindUser,
		AdapterKind: adapterKind,
		Name:        name,
		Owner:       id.UserID,
		Parameters:  map[string]string{"url": feedURL},
	}
	if err := s.st.StoreDefinition(def); err != nil {
		return nil, err
	}

	cfg := &store.Configuration{
		SetID:        setID,
		DefinitionID: def.ID,
		Kind:         store.KindUser,
		Displayed:    true,
		Owner:        id.UserID,
	}
	if _, err := s.st.InsertConfiguration(cfg); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]any{
		"user": id.UserID,
		"set":  setID,
		"feed": name,
	}).Info("User feed added")
	return cfg, nil
}

// AddPredefined registers an existing predefined definition in the set. The
// definition must be visible to one of the caller's roles.
func (s *Service) AddPredefined(id Identity, setID, definitionID int64) (*store.Configuration, error) {
	if err := s.authorizeSet(id, setID, "add a feed to set"); err != nil {
		return nil, err
	}

	def, err := s.st.GetDefinition(definitionID)
	if err != nil {
		return nil, err
	}
	if def == nil || !def.Predefined() {
		return nil, fmt.Errorf("no predefined definition %d", definitionID)
	}
	if !rolesIntersect(def.DefaultRoles, id.Roles) && !s.isAdmin(id) {
		return nil, s.denied(id, "add definition", definitionID)
	}

	cfg := &store.Configuration{
		SetID:        setID,
		DefinitionID: def.ID,
		Kind:         store.KindPredefined,
		Displayed:    true,
	}
	if _, err := s.st.InsertConfiguration(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDisplayed toggles a configuration's visibility.
func (s *Service) SetDisplayed(id Identity, configID int64, displayed bool) error {
	cfg, err := s.ownedConfiguration(id, configID, "change visibility of configuration")
	if err != nil {
		return err
	}
	cfg.Displayed = displayed
	return s.st.StoreConfiguration(cfg)
}

// Remove deletes a configuration from its set. The shared definition survives
// unless it is user-defined and this was its last reference.
func (s *Service) Remove(id Identity, configID int64) error {
	cfg, err := s.ownedConfiguration(id, configID, "remove configuration")
	if err != nil {
		return err
	}
	return s.st.DeleteConfiguration(cfg)
}

// EditUserDefinition updates the display name and URL of a user-defined feed.
// Only the owner (or an administrator) may edit it.
func (s *Service) EditUserDefinition(id Identity, definitionID int64, name, feedURL string) error {
	def, err := s.st.GetDefinition(definitionID)
	if err != nil {
		return err
	}
	if def == nil || def.Kind != store.KindUser {
		return fmt.Errorf("no user definition %d", definitionID)
	}
	if def.Owner != id.UserID && !s.isAdmin(id) {
		return s.denied(id, "edit definition", definitionID)
	}

	if name != "" {
		def.Name = name
	}
	if feedURL != "" {
		if def.Parameters == nil {
			def.Parameters = make(map[string]string)
		}
		def.Parameters["url"] = feedURL
	}
	return s.st.StoreDefinition(def)
}

// EditPredefinedDefinition updates an administrator-curated definition.
// Restricted to the administrator role.
func (s *Service) EditPredefinedDefinition(id Identity, def *store.Definition) error {
	if !s.isAdmin(id) {
		return s.denied(id, "edit predefined definition", def.ID)
	}
	if !def.Predefined() {
		return fmt.Errorf("definition %d is not predefined", def.ID)
	}
	return s.st.StoreDefinition(def)
}

// ownedConfiguration loads a configuration and verifies the caller may mutate
// it: the containing set must be theirs, or they hold the admin role.
func (s *Service) ownedConfiguration(id Identity, configID int64, action string) (*store.Configuration, error) {
	cfg, err := s.st.GetConfiguration(configID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no configuration %d", configID)
	}
	if err := s.authorizeSet(id, cfg.SetID, action); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Service) authorizeSet(id Identity, setID int64, action string) error {
	set, err := s.st.GetNewsSet(setID)
	if err != nil {
		return err
	}
	if set == nil {
		return fmt.Errorf("no news set %d", setID)
	}
	if set.UserID != id.UserID && !s.isAdmin(id) {
		return s.denied(id, action, setID)
	}
	return nil
}

func (s *Service) denied(id Identity, action string, target int64) error {
	err := &AuthorizationError{Actor: id.UserID, Action: action, Target: target}
	logger.Log.WithFields(map[string]any{
		"actor":  id.UserID,
		"action": action,
		"target": target,
	}).Warn("Mutation rejected")
	return err
}

func (s *Service) isAdmin(id Identity) bool {
	for _, role := range id.Roles {
		if role == s.adminRole {
			return true
		}
	}
	return false
}

func rolesIntersect(defaultRoles, userRoles []string) bool {
	for _, dr := range defaultRoles {
		for _, ur := range userRoles {
			if dr == ur {
				return true
			}
		}
	}
	return false
}
