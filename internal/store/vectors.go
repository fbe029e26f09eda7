package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/qmd-dev/qmd/internal/errors"
)

// Vectors is the narrow repository over content_vectors/vectors_vec.
//
// The corpus has no real SQLite vector-extension (vec0) binding, so the
// "KNN virtual table" spec.md names is realized as a plain table holding
// the raw embedding blobs (vectors_vec), mirrored into an in-memory
// coder/hnsw graph kept current by every write; ensureVecTable/
// searchVectors present the same contract a real vec0 table would. See
// DESIGN.md for the grounding rationale (teacher's internal/store/hnsw.go;
// other_examples' sqlite-vec-store.go for the in-memory-mirror pattern).
type Vectors struct {
	s *Store
}

// NewVectors returns the Vectors repository over s.
func NewVectors(s *Store) *Vectors { return &Vectors{s: s} }

// vectorIndex is the in-memory KNN mirror of vectors_vec.
type vectorIndex struct {
	mu  sync.RWMutex
	dim int
	ids map[string]uint64 // hash_seq -> graph key
	rev map[uint64]string // graph key -> hash_seq
	nxt uint64
	g   *hnsw.Graph[uint64]
}

func newVectorIndex() *vectorIndex {
	return &vectorIndex{ids: make(map[string]uint64), rev: make(map[uint64]string)}
}

func (v *vectorIndex) newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 64
	g.Ml = 0.25
	return g
}

// loadFromDB rebuilds the in-memory graph from the persisted vectors_vec
// table, called once when the Store is opened.
func (v *vectorIndex) loadFromDB(db *sql.DB) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows, err := db.Query(`SELECT hash_seq, embedding FROM vectors_vec`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var pending []struct {
		id  string
		vec []float32
	}
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		pending = append(pending, struct {
			id  string
			vec []float32
		}{id, decodeEmbedding(blob)})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	v.dim = len(pending[0].vec)
	v.g = v.newGraph()
	for _, p := range pending {
		v.addLocked(p.id, p.vec)
	}
	return nil
}

func (v *vectorIndex) addLocked(id string, vec []float32) {
	if existing, ok := v.ids[id]; ok {
		delete(v.rev, existing)
		delete(v.ids, id)
	}
	key := v.nxt
	v.nxt++
	v.ids[id] = key
	v.rev[key] = id
	v.g.Add(hnsw.MakeNode(key, normalize(vec)))
}

func normalize(vec []float32) []float32 {
	var sumSquares float64
	for _, x := range vec {
		sumSquares += float64(x) * float64(x)
	}
	mag := math.Sqrt(sumSquares)
	if mag == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, x := range vec {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, x := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	n := len(buf) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

// Dimension returns the dimension the vec table is currently sized to,
// or 0 if no vectors have been embedded yet.
func (vt *Vectors) Dimension() int {
	idx := vt.s.vectors
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dim
}

// EnsureVecTable creates the KNN virtual table sized to D on first use. If
// an index already exists with a different dimension, it is dropped and
// recreated — callers must re-embed (spec.md §4.2).
func (vt *Vectors) EnsureVecTable(d int) error {
	idx := vt.s.vectors
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.g != nil && idx.dim == d {
		return nil
	}

	vt.s.mu.Lock()
	_, err := vt.s.db.Exec(`DELETE FROM vectors_vec`)
	vt.s.mu.Unlock()
	if err != nil {
		return err
	}

	idx.dim = d
	idx.g = idx.newGraph()
	idx.ids = make(map[string]uint64)
	idx.rev = make(map[uint64]string)
	idx.nxt = 0
	return nil
}

// Reset truncates both content_vectors and vectors_vec and clears the
// in-memory KNN mirror, used by the Embedder's force-reembed path (spec.md
// §4.5 step 6) before gathering targets again.
func (vt *Vectors) Reset() error {
	idx := vt.s.vectors
	idx.mu.Lock()
	defer idx.mu.Unlock()

	vt.s.mu.Lock()
	defer vt.s.mu.Unlock()

	if _, err := vt.s.db.Exec(`DELETE FROM vectors_vec`); err != nil {
		return err
	}
	if _, err := vt.s.db.Exec(`DELETE FROM content_vectors`); err != nil {
		return err
	}

	idx.dim = 0
	idx.g = nil
	idx.ids = make(map[string]uint64)
	idx.rev = make(map[uint64]string)
	idx.nxt = 0
	return nil
}

// Insert persists one chunk's vector: a content_vectors row and its
// paired vectors_vec row, keeping the in-memory KNN mirror current.
func (vt *Vectors) Insert(cv ContentVector, embedding []float32) error {
	idx := vt.s.vectors
	idx.mu.RLock()
	dim := idx.dim
	idx.mu.RUnlock()
	if dim != 0 && len(embedding) != dim {
		return errors.State(errors.CodeDimensionMismatch,
			fmt.Sprintf("embedding has dimension %d, index is sized to %d", len(embedding), dim))
	}

	hashSeq := fmt.Sprintf("%s_%d", cv.Hash, cv.Seq)

	vt.s.mu.Lock()
	tx, err := vt.s.db.Begin()
	if err != nil {
		vt.s.mu.Unlock()
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO content_vectors (hash, seq, pos, model, embedded_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(hash, seq) DO UPDATE SET pos = excluded.pos, model = excluded.model, embedded_at = excluded.embedded_at`,
		cv.Hash, cv.Seq, cv.Pos, cv.Model, cv.EmbeddedAt.Unix(),
	)
	if err == nil {
		_, err = tx.Exec(
			`INSERT INTO vectors_vec (hash_seq, embedding) VALUES (?, ?)
			 ON CONFLICT(hash_seq) DO UPDATE SET embedding = excluded.embedding`,
			hashSeq, encodeEmbedding(embedding),
		)
	}
	if err != nil {
		_ = tx.Rollback()
		vt.s.mu.Unlock()
		return err
	}
	err = tx.Commit()
	vt.s.mu.Unlock()
	if err != nil {
		return err
	}

	idx.mu.Lock()
	idx.addLocked(hashSeq, embedding)
	idx.mu.Unlock()
	return nil
}

// DeleteForHash removes every (hash, seq) vector for hash, used when a
// hash becomes orphaned (spec.md §3).
func (vt *Vectors) DeleteForHash(hash string) error {
	vt.s.mu.Lock()
	rows, err := vt.s.db.Query(`SELECT seq FROM content_vectors WHERE hash = ?`, hash)
	if err != nil {
		vt.s.mu.Unlock()
		return err
	}
	var seqs []int
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			rows.Close()
			vt.s.mu.Unlock()
			return err
		}
		seqs = append(seqs, seq)
	}
	rows.Close()

	_, err = vt.s.db.Exec(`DELETE FROM vectors_vec WHERE hash_seq IN (SELECT hash_seq FROM vectors_vec WHERE hash_seq LIKE ?)`, hash+"_%")
	if err == nil {
		_, err = vt.s.db.Exec(`DELETE FROM content_vectors WHERE hash = ?`, hash)
	}
	vt.s.mu.Unlock()
	if err != nil {
		return err
	}

	idx := vt.s.vectors
	idx.mu.Lock()
	for _, seq := range seqs {
		id := fmt.Sprintf("%s_%d", hash, seq)
		if key, ok := idx.ids[id]; ok {
			delete(idx.ids, id)
			delete(idx.rev, key)
		}
	}
	idx.mu.Unlock()
	return nil
}

// HasEmbedding reports whether hash has a seq=0 vector under model.
func (vt *Vectors) HasEmbedding(hash, model string) (bool, error) {
	vt.s.mu.Lock()
	defer vt.s.mu.Unlock()
	var count int
	err := vt.s.db.QueryRow(
		`SELECT COUNT(*) FROM content_vectors WHERE hash = ? AND seq = 0 AND model = ?`, hash, model,
	).Scan(&count)
	return count > 0, err
}

// SearchVectors runs a KNN query for embedding against the in-memory
// graph, returning up to k rows joined against content_vectors, optionally
// restricted to hashes of active documents within collectionName
// (spec.md §4.2). Returns an empty slice (not an error) if the vec table
// does not exist yet.
func (vt *Vectors) SearchVectors(embedding []float32, k int, collectionName string) ([]VectorRow, error) {
	idx := vt.s.vectors
	idx.mu.RLock()
	if idx.g == nil || idx.g.Len() == 0 {
		idx.mu.RUnlock()
		return nil, nil
	}
	query := normalize(embedding)
	nodes := idx.g.Search(query, k*3+k) // overfetch; collection filter may drop hits
	type cand struct {
		id   string
		dist float32
	}
	cands := make([]cand, 0, len(nodes))
	for _, n := range nodes {
		id, ok := idx.rev[n.Key]
		if !ok {
			continue
		}
		cands = append(cands, cand{id: id, dist: idx.g.Distance(query, n.Value)})
	}
	idx.mu.RUnlock()

	if len(cands) == 0 {
		return nil, nil
	}

	vt.s.mu.Lock()
	defer vt.s.mu.Unlock()

	var allowed map[string]bool
	if collectionName != "" {
		allowed = make(map[string]bool)
		rows, err := vt.s.db.Query(`
			SELECT DISTINCT d.hash FROM documents d
			JOIN collections c ON c.id = d.collection_id
			WHERE c.name = ? AND d.active = 1`, collectionName)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var hash string
			if err := rows.Scan(&hash); err != nil {
				rows.Close()
				return nil, err
			}
			allowed[hash] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	var out []VectorRow
	for _, c := range cands {
		hash, seq, ok := splitHashSeq(c.id)
		if !ok {
			continue
		}
		if allowed != nil && !allowed[hash] {
			continue
		}
		var pos int
		var model string
		err := vt.s.db.QueryRow(`SELECT pos, model FROM content_vectors WHERE hash = ? AND seq = ?`, hash, seq).Scan(&pos, &model)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, err
		}
		out = append(out, VectorRow{Hash: hash, Seq: seq, Pos: pos, Model: model, Distance: c.dist})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func splitHashSeq(id string) (string, int, bool) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '_' {
			hash := id[:i]
			var seq int
			_, err := fmt.Sscanf(id[i+1:], "%d", &seq)
			if err != nil {
				return "", 0, false
			}
			return hash, seq, true
		}
	}
	return "", 0, false
}
