package store

import "time"

// Collection is a named, indexed filesystem location (spec.md §3).
type Collection struct {
	ID          int64
	Name        string
	Pwd         string
	GlobPattern string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Document is a single indexed markdown file within a Collection.
type Document struct {
	ID           int64
	CollectionID int64
	Path         string
	Title        string
	Hash         string
	CreatedAt    time.Time
	ModifiedAt   time.Time
	Active       bool
}

// PathContext is a user-assigned annotation inherited by every document
// path under its prefix (spec.md §3, "context inheritance").
type PathContext struct {
	ID           int64
	CollectionID int64
	PathPrefix   string
	Context      string
	CreatedAt    time.Time
}

// ContentVector records that chunk `seq` of the body with the given hash
// was embedded under `model`, starting at byte offset `pos` into the body
// (spec.md's chunker operates on byte boundaries; pos is consistently a
// byte offset everywhere in this package).
type ContentVector struct {
	Hash       string
	Seq        int
	Pos        int
	Model      string
	EmbeddedAt time.Time
}

// VectorRow is a searchVectors hit: a ContentVector plus its KNN distance.
type VectorRow struct {
	Hash     string
	Seq      int
	Pos      int
	Model    string
	Distance float32
}

// FTSRow is a single searchFTS hit joined against documents/collections.
type FTSRow struct {
	DocumentID     int64
	CollectionID   int64
	CollectionName string
	Path           string
	Title          string
	Hash           string
	Score          float64 // raw BM25, negative-is-better per SQLite FTS5
}
