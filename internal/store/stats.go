package store

// Stats contains aggregate database statistics.
type Stats struct {
	PredefinedDefinitions int
	UserDefinitions       int
	NewsSets              int
	Configurations        int
}

// GetStats returns aggregate counts for the status command.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM definitions WHERE kind = 'predefined'", &stats.PredefinedDefinitions},
		{"SELECT COUNT(*) FROM definitions WHERE kind = 'user'", &stats.UserDefinitions},
		{"SELECT COUNT(*) FROM news_sets", &stats.NewsSets},
		{"SELECT COUNT(*) FROM configurations", &stats.Configurations},
	}
	for _, q := range queries {
		if err := s.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, storeErr("collecting stats", err)
		}
	}
	return stats, nil
}
