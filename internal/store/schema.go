package store

// schemaStatements creates the content-addressed schema described in
// spec.md §4.1. FTS mirroring is maintained by triggers (documents_fts_*),
// matching the spec's preferred design; an Indexer that cannot rely on
// triggers would otherwise have to reproduce these writes explicitly.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS content (
		hash TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		pwd TEXT NOT NULL,
		glob_pattern TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(pwd, glob_pattern)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		hash TEXT NOT NULL REFERENCES content(hash),
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		UNIQUE(collection_id, path)
	)`,
	`CREATE TABLE IF NOT EXISTS path_contexts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		path_prefix TEXT NOT NULL,
		context TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(collection_id, path_prefix)
	)`,
	`CREATE TABLE IF NOT EXISTS content_vectors (
		hash TEXT NOT NULL REFERENCES content(hash),
		seq INTEGER NOT NULL,
		pos INTEGER NOT NULL,
		model TEXT NOT NULL,
		embedded_at INTEGER NOT NULL,
		PRIMARY KEY (hash, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS vectors_vec (
		hash_seq TEXT PRIMARY KEY,
		embedding BLOB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ollama_cache (
		hash TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS qmd_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		path, body, content='', tokenize='unicode61 remove_diacritics 2'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_collection_active ON documents(collection_id, active)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(hash)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_path_active ON documents(path, active)`,
	`CREATE INDEX IF NOT EXISTS idx_path_contexts_collection_prefix ON path_contexts(collection_id, path_prefix)`,

	// documents_fts mirror triggers. Body is joined from content by hash so
	// the Indexer never has to write body text itself.
	`CREATE TRIGGER IF NOT EXISTS documents_fts_ai AFTER INSERT ON documents
	 WHEN new.active = 1
	 BEGIN
		INSERT INTO documents_fts(rowid, path, body)
		VALUES (new.id, new.path, (SELECT doc FROM content WHERE hash = new.hash));
	 END`,
	`CREATE TRIGGER IF NOT EXISTS documents_fts_ad AFTER DELETE ON documents
	 BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, path, body)
		VALUES ('delete', old.id, old.path, (SELECT doc FROM content WHERE hash = old.hash));
	 END`,
	`CREATE TRIGGER IF NOT EXISTS documents_fts_au AFTER UPDATE ON documents
	 BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, path, body)
		VALUES ('delete', old.id, old.path, (SELECT doc FROM content WHERE hash = old.hash));
		INSERT INTO documents_fts(rowid, path, body)
		SELECT new.id, new.path, (SELECT doc FROM content WHERE hash = new.hash)
		WHERE new.active = 1;
	 END`,
}
