// Package mock provides in-memory implementations of the core interfaces
// for tests. The DB mirrors the semantics of the Postgres functions
// closely enough that service and pipeline tests exercise real behavior:
// cosine ranking, token budgets, folder cascades.
package mock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// DB is an in-memory core.DbClient.
type DB struct {
	mu      sync.Mutex
	docs    map[string]*models.Document
	chunks  map[string][]models.DocumentChunk // keyed by document id
	folders map[string]*models.DocumentFolder

	// FailOn maps a method name to an error, for failure injection.
	FailOn map[string]error
}

func NewDB() *DB {
	return &DB{
		docs:    make(map[string]*models.Document),
		chunks:  make(map[string][]models.DocumentChunk),
		folders: make(map[string]*models.DocumentFolder),
		FailOn:  make(map[string]error),
	}
}

var _ core.DbClient = (*DB)(nil)

func (d *DB) fail(method string) error { return d.FailOn[method] }

func (d *DB) CreateDocument(_ context.Context, doc *models.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("CreateDocument"); err != nil {
		return err
	}
	cp := *doc
	now := time.Now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	d.docs[cp.ID] = &cp
	return nil
}

func (d *DB) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("GetDocumentByID"); err != nil {
		return nil, err
	}
	doc, ok := d.docs[id]
	if !ok {
		return nil, core.ErrDocumentNotFound
	}
	cp := *doc
	return &cp, nil
}

func (d *DB) ListDocuments(_ context.Context, userID string, filter core.DocumentFilter) ([]models.Document, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("ListDocuments"); err != nil {
		return nil, 0, err
	}

	var matched []models.Document
	for _, doc := range d.docs {
		if doc.UserID != userID {
			continue
		}
		if doc.Status == models.StatusArchived && !filter.IncludeArchived {
			continue
		}
		if filter.Scope != nil && doc.Scope != *filter.Scope {
			continue
		}
		if filter.ThreadID != nil && (doc.ThreadID == nil || *doc.ThreadID != *filter.ThreadID) {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		if filter.RootOnly {
			if doc.FolderID != nil {
				continue
			}
		} else if filter.FolderID != nil {
			if doc.FolderID == nil || *doc.FolderID != *filter.FolderID {
				continue
			}
		}
		matched = append(matched, *doc)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (d *DB) UpdateDocumentStatus(_ context.Context, id string, status models.DocumentStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("UpdateDocumentStatus"); err != nil {
		return err
	}
	doc, ok := d.docs[id]
	if !ok {
		return core.ErrDocumentNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now()
	return nil
}

func (d *DB) SetDocumentError(_ context.Context, id string, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("SetDocumentError"); err != nil {
		return err
	}
	doc, ok := d.docs[id]
	if !ok {
		return core.ErrDocumentNotFound
	}
	doc.Status = models.StatusError
	doc.ProcessingError = message
	doc.UpdatedAt = time.Now()
	return nil
}

func (d *DB) FinalizeDocument(_ context.Context, id string, chunkCount, tokenCount int, metadata map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("FinalizeDocument"); err != nil {
		return err
	}
	doc, ok := d.docs[id]
	if !ok {
		return core.ErrDocumentNotFound
	}
	doc.Status = models.StatusReady
	doc.ChunkCount = chunkCount
	doc.TokenCount = tokenCount
	doc.ProcessingError = ""
	if len(metadata) > 0 {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			doc.Metadata[k] = v
		}
	}
	doc.UpdatedAt = time.Now()
	return nil
}

func (d *DB) MoveDocument(_ context.Context, id string, folderID *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[id]
	if !ok {
		return core.ErrDocumentNotFound
	}
	doc.FolderID = folderID
	doc.UpdatedAt = time.Now()
	return nil
}

func (d *DB) DeleteDocument(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.docs[id]; !ok {
		return core.ErrDocumentNotFound
	}
	delete(d.docs, id)
	delete(d.chunks, id)
	return nil
}

func (d *DB) InsertDocumentChunks(_ context.Context, chunks []models.DocumentChunk) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("InsertDocumentChunks"); err != nil {
		return err
	}
	for _, c := range chunks {
		c.CreatedAt = time.Now()
		d.chunks[c.DocumentID] = append(d.chunks[c.DocumentID], c)
	}
	return nil
}

func (d *DB) DeleteChunksByDocument(_ context.Context, documentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("DeleteChunksByDocument"); err != nil {
		return err
	}
	delete(d.chunks, documentID)
	return nil
}

func (d *DB) GetChunksByDocument(_ context.Context, documentID string) ([]models.DocumentChunk, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]models.DocumentChunk(nil), d.chunks[documentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (d *DB) rankChunks(userID string, queryVec []float32, minSimilarity float64, keep func(*models.Document) bool) []models.SearchResult {
	var results []models.SearchResult
	for docID, chunks := range d.chunks {
		doc, ok := d.docs[docID]
		if !ok || doc.UserID != userID || doc.Status != models.StatusReady {
			continue
		}
		if keep != nil && !keep(doc) {
			continue
		}
		for _, c := range chunks {
			if c.Embedding == nil {
				continue
			}
			sim := cosine(queryVec, c.Embedding)
			if sim < minSimilarity {
				continue
			}
			results = append(results, models.SearchResult{
				Chunk:        c,
				DocumentName: doc.Name,
				FileType:     doc.FileType,
				Similarity:   sim,
			})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	return results
}

func (d *DB) SearchDocuments(_ context.Context, userID string, queryVec []float32, opts core.SearchOptions) ([]models.SearchResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("SearchDocuments"); err != nil {
		return nil, err
	}

	keep := func(doc *models.Document) bool {
		if opts.Scope != nil && doc.Scope != *opts.Scope {
			return false
		}
		if opts.ThreadID != nil {
			if doc.Scope != models.ScopeGlobal && (doc.ThreadID == nil || *doc.ThreadID != *opts.ThreadID) {
				return false
			}
		}
		if opts.FolderID != nil && (doc.FolderID == nil || *doc.FolderID != *opts.FolderID) {
			return false
		}
		if len(opts.FileTypes) > 0 {
			found := false
			for _, ft := range opts.FileTypes {
				if doc.FileType == ft {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}

	results := d.rankChunks(userID, queryVec, opts.MinSimilarity, keep)
	if opts.QueryText != "" {
		// Hybrid ordering: blend the vector similarity with a keyword
		// score, as search_documents does with ts_rank. Similarity stays
		// the raw vector similarity.
		sort.SliceStable(results, func(i, j int) bool {
			si := 0.7*results[i].Similarity + 0.3*keywordScore(results[i].Chunk.Content, opts.QueryText)
			sj := 0.7*results[j].Similarity + 0.3*keywordScore(results[j].Chunk.Content, opts.QueryText)
			return si > sj
		})
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// keywordScore is the mock's stand-in for ts_rank: the fraction of query
// terms that appear in the content, case-insensitive.
func keywordScore(content, query string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	lc := strings.ToLower(content)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lc, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func (d *DB) GetConversationContext(_ context.Context, userID, threadID string, queryVec []float32, maxTokens int, minSimilarity float64) ([]models.SearchResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("GetConversationContext"); err != nil {
		return nil, err
	}

	keep := func(doc *models.Document) bool {
		if doc.Scope == models.ScopeGlobal {
			return true
		}
		return doc.ThreadID != nil && *doc.ThreadID == threadID
	}

	ranked := d.rankChunks(userID, queryVec, minSimilarity, keep)
	var out []models.SearchResult
	running := 0
	for _, r := range ranked {
		running += r.Chunk.TokenCount
		if running > maxTokens {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (d *DB) CreateFolder(_ context.Context, folder *models.DocumentFolder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("CreateFolder"); err != nil {
		return err
	}
	cp := *folder
	now := time.Now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	d.folders[cp.ID] = &cp
	return nil
}

func (d *DB) GetFolderByID(_ context.Context, id string) (*models.DocumentFolder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	folder, ok := d.folders[id]
	if !ok {
		return nil, core.ErrFolderNotFound
	}
	cp := *folder
	cp.DocumentCount = d.countDocs(id)
	return &cp, nil
}

func (d *DB) countDocs(folderID string) int {
	n := 0
	for _, doc := range d.docs {
		if doc.FolderID != nil && *doc.FolderID == folderID && doc.Status != models.StatusArchived {
			n++
		}
	}
	return n
}

func (d *DB) UpdateFolder(_ context.Context, id string, name, color *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	folder, ok := d.folders[id]
	if !ok {
		return core.ErrFolderNotFound
	}
	if name != nil {
		folder.Name = *name
	}
	if color != nil {
		folder.Color = *color
	}
	folder.UpdatedAt = time.Now()
	return nil
}

func (d *DB) SetFolderParent(_ context.Context, id string, parentID *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	folder, ok := d.folders[id]
	if !ok {
		return core.ErrFolderNotFound
	}
	folder.ParentID = parentID
	folder.UpdatedAt = time.Now()
	return nil
}

// DeleteFolder mirrors the SQL cascade: subfolders are removed recursively
// and documents in any removed folder fall back to root.
func (d *DB) DeleteFolder(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.folders[id]; !ok {
		return core.ErrFolderNotFound
	}

	doomed := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for fid, f := range d.folders {
			if doomed[fid] {
				continue
			}
			if f.ParentID != nil && doomed[*f.ParentID] {
				doomed[fid] = true
				changed = true
			}
		}
	}

	for fid := range doomed {
		delete(d.folders, fid)
	}
	for _, doc := range d.docs {
		if doc.FolderID != nil && doomed[*doc.FolderID] {
			doc.FolderID = nil
		}
	}
	return nil
}

func (d *DB) ListSubfolders(_ context.Context, userID string, parentID *string) ([]models.DocumentFolder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.DocumentFolder
	for _, f := range d.folders {
		if f.UserID != userID {
			continue
		}
		if parentID == nil {
			if f.ParentID != nil {
				continue
			}
		} else if f.ParentID == nil || *f.ParentID != *parentID {
			continue
		}
		cp := *f
		cp.DocumentCount = d.countDocs(f.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetFolderTree returns depth-first rows, parents before children, siblings
// sorted by name, same as the recursive CTE.
func (d *DB) GetFolderTree(_ context.Context, userID string) ([]core.FolderTreeRow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	children := make(map[string][]*models.DocumentFolder)
	var roots []*models.DocumentFolder
	for _, f := range d.folders {
		if f.UserID != userID {
			continue
		}
		if f.ParentID == nil {
			roots = append(roots, f)
		} else {
			children[*f.ParentID] = append(children[*f.ParentID], f)
		}
	}
	byName := func(s []*models.DocumentFolder) {
		sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	}
	byName(roots)

	var rows []core.FolderTreeRow
	var walk func(f *models.DocumentFolder, depth int)
	walk = func(f *models.DocumentFolder, depth int) {
		cp := *f
		cp.DocumentCount = d.countDocs(f.ID)
		rows = append(rows, core.FolderTreeRow{DocumentFolder: cp, Depth: depth})
		kids := children[f.ID]
		byName(kids)
		for _, k := range kids {
			walk(k, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return rows, nil
}

func (d *DB) GetFolderBreadcrumb(_ context.Context, folderID string) ([]models.DocumentFolder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var chain []models.DocumentFolder
	id := folderID
	for {
		f, ok := d.folders[id]
		if !ok {
			if len(chain) == 0 {
				return nil, core.ErrFolderNotFound
			}
			break
		}
		chain = append([]models.DocumentFolder{*f}, chain...)
		if f.ParentID == nil {
			break
		}
		id = *f.ParentID
	}
	return chain, nil
}

func (d *DB) Close() error { return nil }

// Storage is an in-memory core.ObjectClient.
type Storage struct {
	mu    sync.Mutex
	blobs map[string][]byte

	FailOn map[string]error

	// Gate, when set, blocks GetFile until the channel is closed. Lets a
	// test hold a download in flight.
	Gate chan struct{}
}

func NewStorage() *Storage {
	return &Storage{blobs: make(map[string][]byte), FailOn: make(map[string]error)}
}

var _ core.ObjectClient = (*Storage)(nil)

func (s *Storage) UploadFile(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["UploadFile"]; err != nil {
		return err
	}
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *Storage) GetFile(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	gate := s.Gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["GetFile"]; err != nil {
		return nil, err
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, &core.StorageError{Op: "get", Key: key, Err: errors.New("no such key")}
	}
	return append([]byte(nil), data...), nil
}

func (s *Storage) DeleteFile(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["DeleteFile"]; err != nil {
		return err
	}
	delete(s.blobs, key)
	return nil
}

// Len reports the number of stored blobs, for test assertions.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Has reports whether a blob exists, for test assertions.
func (s *Storage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}

// Embedder is a deterministic core.EmbeddingProvider: each vector is a
// function of the text so similarity assertions are stable.
type Embedder struct {
	Dim int

	// Err, when set, fails every call.
	Err error

	// SkipContaining marks texts that get a nil vector instead of a value,
	// simulating a per-item miss inside a successful batch.
	SkipContaining string

	mu    sync.Mutex
	Calls int
}

var _ core.EmbeddingProvider = (*Embedder)(nil)

func (e *Embedder) dim() int {
	if e.Dim <= 0 {
		return 8
	}
	return e.Dim
}

// Vector derives a unit-ish vector from text. Same text, same vector.
func (e *Embedder) Vector(text string) []float32 {
	v := make([]float32, e.dim())
	h := uint32(2166136261)
	for _, b := range []byte(text) {
		h = (h ^ uint32(b)) * 16777619
		v[h%uint32(len(v))] += 1
	}
	return v
}

func (e *Embedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.Calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Vector(text), nil
}

func (e *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.Calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if e.SkipContaining != "" && strings.Contains(t, e.SkipContaining) {
			continue
		}
		out[i] = e.Vector(t)
	}
	return out, nil
}

// Vision is a scripted core.VisionProvider.
type Vision struct {
	Description string
	Err         error
}

var _ core.VisionProvider = (*Vision)(nil)

func (v *Vision) DescribeImage(_ context.Context, _ []byte, mimeType string) (string, error) {
	if v.Err != nil {
		return "", v.Err
	}
	if v.Description != "" {
		return v.Description, nil
	}
	return fmt.Sprintf("an image of type %s", mimeType), nil
}
