package server

import (
	"net/http"
	"strings"
)

// RolesService extracts the caller's portal roles from a request.
type RolesService interface {
	GetUserRoles(r *http.Request) []string
}

// HeaderRolesService reads roles from a portal-injected header holding a
// separated list, e.g. "student;alumni".
type HeaderRolesService struct {
	Header string // defaults to X-Remote-User-Roles
}

func (h HeaderRolesService) GetUserRoles(r *http.Request) []string {
	header := h.Header
	if header == "" {
		header = "X-Remote-User-Roles"
	}

	raw := r.Header.Get(header)
	if raw == "" {
		return nil
	}

	var roles []string
	for _, role := range strings.FieldsFunc(raw, func(c rune) bool {
		return c == ';' || c == ','
	}) {
		role = strings.TrimSpace(role)
		if role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
