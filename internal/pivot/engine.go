package pivot

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

type memoKey struct {
	dataset uuid.UUID
	config  uint64
}

// Engine memoizes the most recent pivot. A repeated call with the same
// dataset and configuration returns the cached result; replacing the
// dataset or changing the configuration recomputes.
type Engine struct {
	logger *zap.Logger

	mu     sync.Mutex
	key    memoKey
	last   *Result
	hits   int
	misses int
}

// NewEngine returns an engine. A nil logger is replaced by a no-op one.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Pivot returns the pivot of ds under cfg, reusing the previous result
// when both inputs are unchanged.
func (e *Engine) Pivot(ds *dataset.Dataset, cfg Configuration) *Result {
	if ds == nil {
		return Pivot(nil, cfg)
	}
	key := memoKey{dataset: ds.ID, config: fingerprint(cfg)}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last != nil && e.key == key {
		e.hits++
		e.logger.Debug("Pivot cache hit", zap.String("dataset", ds.Name))
		return e.last
	}

	start := time.Now()
	res := Pivot(ds, cfg)
	e.misses++
	e.key, e.last = key, res
	e.logger.Debug("Pivot computed",
		zap.String("dataset", ds.Name),
		zap.Int("input_rows", ds.Len()),
		zap.Int("filtered_rows", res.FilteredRows),
		zap.Int("records", len(res.Records)),
		zap.Int("column_keys", len(res.ColumnKeys)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

// Stats returns the cache hit and miss counts.
func (e *Engine) Stats() (hits, misses int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits, e.misses
}

func fingerprint(cfg Configuration) uint64 {
	b, err := json.Marshal(cfg)
	if err != nil {
		// Configuration has only plain fields, Marshal cannot fail
		return 0
	}
	return xxh3.Hash(b)
}
