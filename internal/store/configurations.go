package store

import "database/sql"

// GetConfiguration returns a single configuration by ID, or nil if absent.
func (s *Store) GetConfiguration(configID int64) (*Configuration, error) {
	row := s.conn.QueryRow(
		`SELECT id, set_id, definition_id, kind, displayed, position, owner
		FROM configurations WHERE id = ?`, configID,
	)
	cfg, err := scanConfiguration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get configuration", err)
	}
	return cfg, nil
}

// ListConfigurations returns the configurations of a set in user-controlled
// order.
func (s *Store) ListConfigurations(setID int64) ([]Configuration, error) {
	rows, err := s.conn.Query(
		`SELECT id, set_id, definition_id, kind, displayed, position, owner
		FROM configurations WHERE set_id = ? ORDER BY position, id`, setID,
	)
	if err != nil {
		return nil, storeErr("list configurations", err)
	}
	defer rows.Close()

	var cfgs []Configuration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, storeErr("scanning configuration", err)
		}
		cfgs = append(cfgs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("scanning configurations", err)
	}
	return cfgs, nil
}

// InsertConfiguration adds a configuration at the end of its set. Returns the
// new ID, or 0 when the set already holds a configuration for the same
// definition (the UNIQUE(set_id, definition_id) constraint). The position is
// assigned inside the insert, so concurrent resolution of the same set cannot
// double-insert a definition.
func (s *Store) InsertConfiguration(cfg *Configuration) (int64, error) {
	result, err := s.conn.Exec(
		`INSERT OR IGNORE INTO configurations (set_id, definition_id, kind, displayed, position, owner)
		VALUES (?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM configurations WHERE set_id = ?),
			?)`,
		cfg.SetID, cfg.DefinitionID, cfg.Kind, cfg.Displayed, cfg.SetID, nullable(cfg.Owner),
	)
	if err != nil {
		return 0, storeErr("insert configuration", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("insert configuration", err)
	}
	if rowsAffected == 0 {
		// Duplicate (set, definition) pair
		return 0, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, storeErr("insert configuration", err)
	}
	cfg.ID = id
	return id, nil
}

// StoreConfiguration updates the mutable fields of an existing configuration.
func (s *Store) StoreConfiguration(cfg *Configuration) error {
	_, err := s.conn.Exec(
		"UPDATE configurations SET displayed = ?, position = ? WHERE id = ?",
		cfg.Displayed, cfg.Position, cfg.ID,
	)
	return storeErr("store configuration", err)
}

// DeleteConfiguration removes a configuration. A user definition left with no
// referencing configuration is removed with it; predefined definitions are
// shared and always survive.
func (s *Store) DeleteConfiguration(cfg *Configuration) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return storeErr("delete configuration", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM configurations WHERE id = ?", cfg.ID); err != nil {
		return storeErr("delete configuration", err)
	}

	if cfg.Kind == KindUser {
		var remaining int
		err := tx.QueryRow(
			"SELECT COUNT(*) FROM configurations WHERE definition_id = ?",
			cfg.DefinitionID,
		).Scan(&remaining)
		if err != nil {
			return storeErr("delete configuration", err)
		}
		if remaining == 0 {
			if _, err := tx.Exec("DELETE FROM definitions WHERE id = ?", cfg.DefinitionID); err != nil {
				return storeErr("delete orphaned definition", err)
			}
		}
	}

	return storeErr("delete configuration", tx.Commit())
}

func scanConfiguration(row rowScanner) (*Configuration, error) {
	var (
		cfg   Configuration
		owner sql.NullString
	)
	if err := row.Scan(&cfg.ID, &cfg.SetID, &cfg.DefinitionID, &cfg.Kind,
		&cfg.Displayed, &cfg.Position, &owner); err != nil {
		return nil, err
	}
	cfg.Owner = owner.String
	return &cfg, nil
}
