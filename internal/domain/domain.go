package domain

import "context"

// PageNotPaginated is the page label used for formats without page structure.
const PageNotPaginated = "N/A"

// Page is one page (or unpaginated segment) of a loaded source document.
type Page struct {
	Content string
	Source  string
	Page    string
}

// Chunk is a bounded-length text span cut from a single page, the unit of
// embedding and retrieval. Chunks are created once at index-build time and
// never mutated.
type Chunk struct {
	Content string
	Source  string
	Page    string
}

// SearchResult is a query-time projection of an indexed chunk. Score is a
// distance: lower means more similar.
type SearchResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Page    string  `json:"page"`
	Score   float64 `json:"score"`
}

// FileStatus classifies the outcome of loading one folder entry.
type FileStatus string

const (
	FileLoaded  FileStatus = "loaded"
	FileSkipped FileStatus = "skipped"
	FileFailed  FileStatus = "failed"
)

// FileOutcome records what happened to a single file during a folder load.
type FileOutcome struct {
	Path   string
	Status FileStatus
	Pages  int
	Err    error
}

// LoadReport collects per-file outcomes of one folder load so callers can
// assert on them instead of parsing log output.
type LoadReport struct {
	Outcomes []FileOutcome
}

// Add appends an outcome to the report.
func (r *LoadReport) Add(o FileOutcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Loaded returns the number of successfully loaded files.
func (r *LoadReport) Loaded() int { return r.count(FileLoaded) }

// Skipped returns the number of files skipped as unsupported.
func (r *LoadReport) Skipped() int { return r.count(FileSkipped) }

// Failed returns the number of files that could not be read.
func (r *LoadReport) Failed() int { return r.count(FileFailed) }

func (r *LoadReport) count(s FileStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Embedder converts text into fixed-dimension vectors. Index-time and
// query-time embeddings must come from the same implementation so they share
// one vector space.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits loaded pages into chunks suitable for embedding.
type Chunker interface {
	Split(pages []Page) []Chunk
}

// VectorIndex stores embedded chunks and answers nearest-neighbour queries.
// Entries are append-only; existing entries are never updated in place.
type VectorIndex interface {
	Add(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, k int) ([]SearchResult, error)
	Len() int
}
