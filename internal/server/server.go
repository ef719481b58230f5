// Package server exposes the news reader over a JSON HTTP API. Identity and
// roles arrive as portal-injected request headers; everything downstream is
// passed explicit identity values.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TobiSchelling/newsreader/internal/aggregator"
	"github.com/TobiSchelling/newsreader/internal/fetch"
	"github.com/TobiSchelling/newsreader/internal/logger"
	"github.com/TobiSchelling/newsreader/internal/prefs"
	"github.com/TobiSchelling/newsreader/internal/resolver"
	"github.com/TobiSchelling/newsreader/internal/store"
)

// Server is the HTTP server for the news reader API.
type Server struct {
	agg     *aggregator.Aggregator
	res     *resolver.Resolver
	prefs   *prefs.Service
	stories *fetch.Resolver
	roles   RolesService
	mux     *http.ServeMux
}

// New creates a new Server.
func New(agg *aggregator.Aggregator, res *resolver.Resolver, pr *prefs.Service, stories *fetch.Resolver, roles RolesService) *Server {
	s := &Server{agg: agg, res: res, prefs: pr, stories: stories, roles: roles, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve blocks serving the API on the given port.
func (s *Server) Serve(port int) error {
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/sets/{name}", s.handleRenderSet)
	s.mux.HandleFunc("GET /api/sets/{name}/available", s.handleAvailable)
	s.mux.HandleFunc("POST /api/sets/{name}/feeds", s.handleAddFeed)
	s.mux.HandleFunc("PATCH /api/configurations/{id}", s.handleSetDisplayed)
	s.mux.HandleFunc("DELETE /api/configurations/{id}", s.handleRemove)
	s.mux.HandleFunc("PUT /api/definitions/{id}", s.handleEditDefinition)
	s.mux.HandleFunc("POST /api/fullstory", s.handleFullStory)
}

type entryJSON struct {
	Title        string     `json:"title"`
	Link         string     `json:"link,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Summary      string     `json:"summary"`
	FullStoryURL string     `json:"fullStoryUrl,omitempty"`
}

type feedJSON struct {
	ConfigurationID int64       `json:"configurationId"`
	DefinitionID    int64       `json:"definitionId"`
	Name            string      `json:"name"`
	Kind            string      `json:"kind"`
	Displayed       bool        `json:"displayed"`
	Error           string      `json:"error,omitempty"`
	Entries         []entryJSON `json:"entries"`
}

type setJSON struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Feeds []feedJSON `json:"feeds"`
}

func (s *Server) handleRenderSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	rendered, err := s.agg.Render(r.Context(), id.UserID, id.Roles, r.PathValue("name"))
	if err != nil {
		s.fail(w, err)
		return
	}

	out := setJSON{ID: rendered.Set.ID, Name: rendered.Set.Name, Feeds: []feedJSON{}}
	for _, feed := range rendered.Feeds {
		fj := feedJSON{
			ConfigurationID: feed.Configuration.ID,
			DefinitionID:    feed.Definition.ID,
			Name:            feed.Definition.Name,
			Kind:            string(feed.Configuration.Kind),
			Displayed:       feed.Configuration.Displayed,
			Entries:         []entryJSON{},
		}
		if feed.Err != nil {
			fj.Error = "feed unavailable"
		}
		for _, entry := range feed.Entries {
			ej := entryJSON{Title: entry.Title, Link: entry.Link, Summary: entry.Summary}
			if !entry.PublishedAt.IsZero() {
				published := entry.PublishedAt
				ej.PublishedAt = &published
			}
			if entry.FullStory != nil {
				ej.FullStoryURL = entry.FullStory.URL
			}
			fj.Entries = append(fj.Entries, ej)
		}
		out.Feeds = append(out.Feeds, fj)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	resolved, err := s.res.Resolve(id.UserID, id.Roles, r.PathValue("name"))
	if err != nil {
		s.fail(w, err)
		return
	}

	hidden, err := s.res.HiddenPredefinedDefinitions(resolved.Set.ID, id.Roles)
	if err != nil {
		s.fail(w, err)
		return
	}

	type defJSON struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := []defJSON{}
	for _, def := range hidden {
		out = append(out, defJSON{ID: def.ID, Name: def.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var body struct {
		Name         string `json:"name"`
		URL          string `json:"url"`
		AdapterKind  string `json:"adapterKind"`
		DefinitionID int64  `json:"definitionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resolved, err := s.res.Resolve(id.UserID, id.Roles, r.PathValue("name"))
	if err != nil {
		s.fail(w, err)
		return
	}

	var cfg *store.Configuration
	if body.DefinitionID != 0 {
		cfg, err = s.prefs.AddPredefined(id, resolved.Set.ID, body.DefinitionID)
	} else {
		cfg, err = s.prefs.AddUserFeed(id, resolved.Set.ID, body.Name, body.URL, body.AdapterKind)
	}
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"configurationId": cfg.ID})
}

func (s *Server) handleSetDisplayed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	configID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid configuration id", http.StatusBadRequest)
		return
	}

	var body struct {
		Displayed bool `json:"displayed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.prefs.SetDisplayed(id, configID, body.Displayed); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	configID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid configuration id", http.StatusBadRequest)
		return
	}

	if err := s.prefs.Remove(id, configID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	defID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid definition id", http.StatusBadRequest)
		return
	}

	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.prefs.EditUserDefinition(id, defID, body.Name, body.URL); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFullStory resolves a full-story handle on behalf of the view layer.
// One GET per call, nothing cached.
func (s *Server) handleFullStory(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.identity(w, r); !ok {
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	text, err := s.stories.Handle(body.URL).Resolve(r.Context())
	if err != nil {
		http.Error(w, "story unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// identity extracts the request-scoped caller identity from the portal
// headers. Requests without a user are rejected.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (prefs.Identity, bool) {
	userID := r.Header.Get("X-Remote-User")
	if userID == "" {
		http.Error(w, "missing X-Remote-User header", http.StatusUnauthorized)
		return prefs.Identity{}, false
	}
	return prefs.Identity{UserID: userID, Roles: s.roles.GetUserRoles(r)}, true
}

// fail maps error taxonomy to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var authErr *prefs.AuthorizationError
	if errors.As(err, &authErr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		logger.Log.WithField("error", err.Error()).Error("Persistence failure")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithField("error", err.Error()).Error("Encoding response failed")
	}
}
