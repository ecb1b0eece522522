// Package engine wires loading, chunking, batched indexing and retrieval
// into one explicitly constructed instance owned by the serving layer.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kataras/golog"

	"ragserver/internal/domain"
	"ragserver/internal/index"
	"ragserver/internal/loader"
)

// Sentinels returned by ContextForQuestion so downstream consumers can tell
// "not yet indexed" from "searched, found nothing".
const (
	NoDocumentsLoaded  = "No rule documents loaded."
	NoInformationFound = "No relevant information found."
)

// Params collects the collaborators of an Engine. Tests construct isolated
// engines with temp folders and fake embedders.
type Params struct {
	DocumentsDir string
	Loader       *loader.Loader
	Chunker      domain.Chunker
	Builder      *index.Builder
	Embedder     domain.Embedder
	Index        domain.VectorIndex
	Logger       *golog.Logger
}

// Engine answers similarity queries over the documents indexed at
// construction time. The index is rebuilt on every process start.
type Engine struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	report   *domain.LoadReport
	log      *golog.Logger
}

// New runs the full load -> chunk -> batched index pipeline once. When the
// index build fails part-way, the returned error describes the partial state
// and the engine stays usable over the chunks indexed so far.
func New(ctx context.Context, p Params) (*Engine, error) {
	logger := p.Logger
	if logger == nil {
		logger = golog.Default
	}
	e := &Engine{
		embedder: p.Embedder,
		index:    p.Index,
		log:      logger,
	}

	logger.Infof("loading documents from %s", p.DocumentsDir)
	pages, report, err := p.Loader.LoadDir(p.DocumentsDir)
	if err != nil {
		return nil, err
	}
	e.report = report
	if report.Loaded() == 0 {
		logger.Warnf("no documents found in %s", p.DocumentsDir)
		return e, nil
	}

	chunks := p.Chunker.Split(pages)
	logger.Infof("created %d chunks from %d pages", len(chunks), len(pages))

	added, err := p.Builder.Build(ctx, chunks)
	if err != nil {
		return e, fmt.Errorf("index build: %w", err)
	}
	logger.Infof("engine ready, %d documents, %d embedded chunks", report.Loaded(), added)
	return e, nil
}

// Ready reports whether the index holds at least one embedded chunk.
func (e *Engine) Ready() bool { return e.index.Len() > 0 }

// Report returns the per-file outcomes of the construction-time folder load.
func (e *Engine) Report() *domain.LoadReport { return e.report }

// Search embeds the query and returns up to k results ordered by ascending
// distance. Without an index it returns an empty result set, not an error.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if !e.Ready() {
		return []domain.SearchResult{}, nil
	}
	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return e.index.Search(vector, k)
}

// ContextForQuestion joins the top results into one grounding string with
// per-result source and page labels, capped at maxChunks (default 3).
func (e *Engine) ContextForQuestion(ctx context.Context, question string, maxChunks int) (string, error) {
	if !e.Ready() {
		return NoDocumentsLoaded, nil
	}
	if maxChunks <= 0 {
		maxChunks = 3
	}
	results, err := e.Search(ctx, question, maxChunks)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoInformationFound, nil
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "[Source %d: %s, Page %s]\n%s\n", i+1, filepath.Base(r.Source), r.Page, r.Content)
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
