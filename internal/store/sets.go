package store

import "database/sql"

// GetNewsSet returns a news set by ID, or nil if absent.
func (s *Store) GetNewsSet(setID int64) (*NewsSet, error) {
	row := s.conn.QueryRow(
		"SELECT id, user_id, name, created_at FROM news_sets WHERE id = ?", setID,
	)
	set, err := scanNewsSet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get news set", err)
	}
	return set, nil
}

// GetNewsSetByName returns the set with the given name owned by userID,
// or nil if the user has no such set yet.
func (s *Store) GetNewsSetByName(userID, name string) (*NewsSet, error) {
	row := s.conn.QueryRow(
		"SELECT id, user_id, name, created_at FROM news_sets WHERE user_id = ? AND name = ?",
		userID, name,
	)
	set, err := scanNewsSet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get news set by name", err)
	}
	return set, nil
}

// CreateNewsSet creates the (userID, name) set if it does not exist and
// returns it. The UNIQUE(user_id, name) constraint makes concurrent creation
// collapse to a single row.
func (s *Store) CreateNewsSet(userID, name string) (*NewsSet, error) {
	_, err := s.conn.Exec(
		"INSERT OR IGNORE INTO news_sets (user_id, name) VALUES (?, ?)",
		userID, name,
	)
	if err != nil {
		return nil, storeErr("create news set", err)
	}
	return s.GetNewsSetByName(userID, name)
}

func scanNewsSet(row *sql.Row) (*NewsSet, error) {
	var set NewsSet
	if err := row.Scan(&set.ID, &set.UserID, &set.Name, &set.CreatedAt); err != nil {
		return nil, err
	}
	return &set, nil
}
