package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/chunker"
	"ragserver/internal/domain"
	"ragserver/internal/engine"
	"ragserver/internal/index"
	"ragserver/internal/loader"
	"ragserver/internal/vectorstore"
)

// keywordEmbedder maps text onto a small fixed vocabulary so that queries
// sharing a keyword with a chunk land closest to it.
type keywordEmbedder struct {
	failBatches bool
}

func (k *keywordEmbedder) embed(text string) []float64 {
	lower := strings.ToLower(text)
	v := []float64{0, 0, 1}
	if strings.Contains(lower, "firearm") {
		v[0] = 1
	}
	if strings.Contains(lower, "vehicle") {
		v[1] = 1
	}
	return v
}

func (k *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	if k.failBatches {
		return nil, errors.New("provider down")
	}
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		vectors[i] = k.embed(t)
	}
	return vectors, nil
}

func (k *keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	return k.embed(text), nil
}

func newEngine(t *testing.T, dir string, emb domain.Embedder) (*engine.Engine, error) {
	t.Helper()
	idx := vectorstore.NewMemory()
	builder := index.New(emb, idx, index.Config{
		BatchSize:       50,
		Cooldown:        time.Millisecond,
		ThrottleBackoff: time.Millisecond,
	}, nil)
	return engine.New(context.Background(), engine.Params{
		DocumentsDir: dir,
		Loader:       loader.New(nil),
		Chunker:      chunker.NewRecursiveSplitter(2000, 200),
		Builder:      builder,
		Embedder:     emb,
		Index:        idx,
	})
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEngineEmptyFolder(t *testing.T) {
	eng, err := newEngine(t, t.TempDir(), &keywordEmbedder{})

	require.NoError(t, err)
	require.NotNil(t, eng)
	assert.False(t, eng.Ready())

	results, err := eng.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	ragContext, err := eng.ContextForQuestion(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Equal(t, engine.NoDocumentsLoaded, ragContext)
}

func TestEngineSearchRanksByRelevance(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "firearms.txt", "A firearm must be registered with the bureau.")
	writeDoc(t, dir, "vehicles.txt", "A vehicle must carry valid plates.")

	eng, err := newEngine(t, dir, &keywordEmbedder{})
	require.NoError(t, err)
	assert.True(t, eng.Ready())

	results, err := eng.Search(context.Background(), "is this firearm legal", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Content, "firearm")
	assert.LessOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, filepath.Join(dir, "firearms.txt"), results[0].Source)
}

func TestEngineContextFormat(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "firearms.txt", "A firearm must be registered with the bureau.")

	eng, err := newEngine(t, dir, &keywordEmbedder{})
	require.NoError(t, err)

	ragContext, err := eng.ContextForQuestion(context.Background(), "firearm rules", 3)
	require.NoError(t, err)
	assert.Contains(t, ragContext, "[Source 1: firearms.txt, Page N/A]")
	assert.Contains(t, ragContext, "A firearm must be registered")
}

func TestEngineSurvivesFailedBuild(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "firearms.txt", "A firearm must be registered with the bureau.")

	eng, err := newEngine(t, dir, &keywordEmbedder{failBatches: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index build")
	require.NotNil(t, eng)
	assert.False(t, eng.Ready())
	assert.Equal(t, 1, eng.Report().Loaded())

	ragContext, ctxErr := eng.ContextForQuestion(context.Background(), "firearm rules", 3)
	require.NoError(t, ctxErr)
	assert.Equal(t, engine.NoDocumentsLoaded, ragContext)
}
