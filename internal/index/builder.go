// Package index builds the vector index from chunks in rate-limited batches.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/kataras/golog"
	"golang.org/x/time/rate"

	"ragserver/internal/domain"
)

// Config bounds the batched build. Zero values fall back to defaults chosen
// to stay under a 1500 requests-per-minute provider ceiling.
type Config struct {
	BatchSize       int
	Cooldown        time.Duration
	ThrottleBackoff time.Duration
}

// Builder drives chunk embedding batch by batch, strictly in order, and
// extends the index incrementally. A failed batch is retried exactly once
// after a back-off; a second failure aborts the build while keeping the
// progress already indexed.
type Builder struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	cfg      Config
	sleep    func(time.Duration)
	log      *golog.Logger
}

// New creates a Builder over the given embedder and index.
func New(embedder domain.Embedder, idx domain.VectorIndex, cfg Config, logger *golog.Logger) *Builder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 2 * time.Second
	}
	if cfg.ThrottleBackoff <= 0 {
		cfg.ThrottleBackoff = 10 * time.Second
	}
	if logger == nil {
		logger = golog.Default
	}
	return &Builder{
		embedder: embedder,
		index:    idx,
		cfg:      cfg,
		sleep:    time.Sleep,
		log:      logger,
	}
}

// Build embeds every chunk exactly once and adds it to the index. It returns
// the number of chunks indexed; on error that count reflects the retained
// partial progress. An empty input is not an error and touches neither the
// provider nor the index.
func (b *Builder) Build(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	// Token-bucket pacing: the first batch goes out immediately, every
	// following batch waits out the cool-down interval.
	limiter := rate.NewLimiter(rate.Every(b.cfg.Cooldown), 1)

	total := (len(chunks) + b.cfg.BatchSize - 1) / b.cfg.BatchSize
	added := 0
	for start := 0; start < len(chunks); start += b.cfg.BatchSize {
		end := start + b.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		batchNum := start/b.cfg.BatchSize + 1

		if err := limiter.Wait(ctx); err != nil {
			return added, err
		}
		vectors, err := b.embedBatch(ctx, batch, batchNum, total)
		if err != nil {
			return added, fmt.Errorf("batch %d/%d failed after retry, %d of %d chunks indexed: %w",
				batchNum, total, added, len(chunks), err)
		}
		if err := b.index.Add(batch, vectors); err != nil {
			return added, fmt.Errorf("extend index with batch %d/%d: %w", batchNum, total, err)
		}
		added += len(batch)
		b.log.Infof("indexed chunks %d to %d of %d", start, end, len(chunks))
	}
	return added, nil
}

// embedBatch performs one embedding call with a single bounded retry.
func (b *Builder) embedBatch(ctx context.Context, batch []domain.Chunk, batchNum, total int) ([][]float64, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		b.log.Warnf("embedding batch %d/%d failed (%v), retrying in %s", batchNum, total, err, b.cfg.ThrottleBackoff)
		b.sleep(b.cfg.ThrottleBackoff)
		vectors, err = b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("provider returned %d vectors for %d chunks", len(vectors), len(batch))
	}
	return vectors, nil
}
