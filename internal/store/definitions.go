package store

import (
	"database/sql"
	"encoding/json"
)

// GetDefinition returns a single definition by ID, or nil if absent.
func (s *Store) GetDefinition(definitionID int64) (*Definition, error) {
	row := s.conn.QueryRow(
		`SELECT id, kind, adapter_kind, name, fname, owner, parameters, default_roles, created_at
		FROM definitions WHERE id = ?`, definitionID,
	)
	def, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get definition", err)
	}
	return def, nil
}

// StoreDefinition inserts the definition when its ID is zero (filling in the
// generated ID) and updates it otherwise.
func (s *Store) StoreDefinition(def *Definition) error {
	var params, roles *string
	var err error
	if def.Parameters != nil {
		if params, err = encodeJSON(def.Parameters); err != nil {
			return storeErr("store definition", err)
		}
	}
	if def.DefaultRoles != nil {
		if roles, err = encodeJSON(def.DefaultRoles); err != nil {
			return storeErr("store definition", err)
		}
	}

	if def.ID == 0 {
		result, err := s.conn.Exec(
			`INSERT INTO definitions (kind, adapter_kind, name, fname, owner, parameters, default_roles)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			def.Kind, def.AdapterKind, def.Name, nullable(def.FName), nullable(def.Owner), params, roles,
		)
		if err != nil {
			return storeErr("insert definition", err)
		}
		def.ID, err = result.LastInsertId()
		if err != nil {
			return storeErr("insert definition", err)
		}
		return nil
	}

	_, err = s.conn.Exec(
		`UPDATE definitions SET adapter_kind = ?, name = ?, fname = ?, owner = ?, parameters = ?, default_roles = ?
		WHERE id = ?`,
		def.AdapterKind, def.Name, nullable(def.FName), nullable(def.Owner), params, roles, def.ID,
	)
	return storeErr("update definition", err)
}

// DeleteDefinition removes a definition. Callers are responsible for making
// sure no configuration still references it.
func (s *Store) DeleteDefinition(definitionID int64) error {
	_, err := s.conn.Exec("DELETE FROM definitions WHERE id = ?", definitionID)
	return storeErr("delete definition", err)
}

// ListPredefinedDefinitions returns every predefined definition.
func (s *Store) ListPredefinedDefinitions() ([]Definition, error) {
	rows, err := s.conn.Query(
		`SELECT id, kind, adapter_kind, name, fname, owner, parameters, default_roles, created_at
		FROM definitions WHERE kind = 'predefined' ORDER BY name`,
	)
	if err != nil {
		return nil, storeErr("list predefined definitions", err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

// GetPredefinedDefinitionsForRoles returns predefined definitions whose
// default roles intersect the given role set.
func (s *Store) GetPredefinedDefinitionsForRoles(roles []string) ([]Definition, error) {
	defs, err := s.ListPredefinedDefinitions()
	if err != nil {
		return nil, err
	}

	var matched []Definition
	for _, def := range defs {
		if rolesIntersect(def.DefaultRoles, roles) {
			matched = append(matched, def)
		}
	}
	return matched, nil
}

// GetHiddenPredefinedDefinitions returns predefined definitions visible to
// the given roles that have no configuration at all in the set yet. These are
// the candidates the user may still add manually.
func (s *Store) GetHiddenPredefinedDefinitions(setID int64, roles []string) ([]Definition, error) {
	rows, err := s.conn.Query(
		`SELECT d.id, d.kind, d.adapter_kind, d.name, d.fname, d.owner, d.parameters, d.default_roles, d.created_at
		FROM definitions d
		LEFT JOIN configurations c ON c.definition_id = d.id AND c.set_id = ?
		WHERE d.kind = 'predefined' AND c.id IS NULL
		ORDER BY d.name`, setID,
	)
	if err != nil {
		return nil, storeErr("get hidden predefined definitions", err)
	}
	defer rows.Close()

	defs, err := scanDefinitions(rows)
	if err != nil {
		return nil, err
	}

	var hidden []Definition
	for _, def := range defs {
		if rolesIntersect(def.DefaultRoles, roles) {
			hidden = append(hidden, def)
		}
	}
	return hidden, nil
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*Definition, error) {
	var (
		def    Definition
		fname  sql.NullString
		owner  sql.NullString
		params sql.NullString
		roles  sql.NullString
	)
	if err := row.Scan(&def.ID, &def.Kind, &def.AdapterKind, &def.Name,
		&fname, &owner, &params, &roles, &def.CreatedAt); err != nil {
		return nil, err
	}
	def.FName = fname.String
	def.Owner = owner.String

	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &def.Parameters); err != nil {
			return nil, err
		}
	}
	if roles.Valid && roles.String != "" {
		if err := json.Unmarshal([]byte(roles.String), &def.DefaultRoles); err != nil {
			return nil, err
		}
	}
	return &def, nil
}

func scanDefinitions(rows *sql.Rows) ([]Definition, error) {
	var defs []Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, storeErr("scanning definition", err)
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("scanning definitions", err)
	}
	return defs, nil
}

func encodeJSON(v any) (*string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
