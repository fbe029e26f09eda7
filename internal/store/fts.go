package store

// FTS is the narrow repository over the documents_fts virtual table.
type FTS struct{ s *Store }

// NewFTS returns the FTS repository over s.
func NewFTS(s *Store) *FTS { return &FTS{s: s} }

// SearchFTS submits an already-built FTS5 query string q (see
// internal/search for query construction) and returns hits joined against
// documents and collections, ordered by raw BM25 ascending (spec.md
// §4.2, §4.6.1). pathWeight/bodyWeight select the bm25() column weights.
func (f *FTS) SearchFTS(q string, limit int, collectionName string, pathWeight, bodyWeight float64) ([]FTSRow, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	query := `
		SELECT d.id, d.collection_id, c.name, d.path, d.title, d.hash,
		       bm25(documents_fts, ?, ?) AS score
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.rowid
		JOIN collections c ON c.id = d.collection_id
		WHERE documents_fts MATCH ? AND d.active = 1`
	args := []any{pathWeight, bodyWeight, q}

	if collectionName != "" {
		query += ` AND c.name = ?`
		args = append(args, collectionName)
	}
	query += ` ORDER BY score ASC LIMIT ?`
	args = append(args, limit)

	rows, err := f.s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FTSRow
	for rows.Next() {
		var r FTSRow
		if err := rows.Scan(&r.DocumentID, &r.CollectionID, &r.CollectionName, &r.Path, &r.Title, &r.Hash, &r.Score); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
