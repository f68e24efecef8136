package search

import (
	"io"
	"log/slog"

	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/storage"
)

// Defaults for Index configuration.
const (
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.4
	DefaultFallbackThreshold   = 0.6
	DefaultQueryCacheSize      = 100
	DefaultBuildBatchSize      = 64
)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(x *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		x.logger = logger
		return nil
	}
}

// WithMatrixStore persists the embedding matrix between runs.
// Without a store the matrix is rebuilt on every start.
func WithMatrixStore(store storage.MatrixStore) Option {
	return func(x *Index) error {
		x.store = store
		return nil
	}
}

// WithModel records the embedding model name in the persisted matrix.
// A stored matrix built with a different model is rebuilt.
func WithModel(name string) Option {
	return func(x *Index) error {
		x.model = name
		return nil
	}
}

// WithTopK sets the number of results returned when a search passes topK <= 0.
func WithTopK(n int) Option {
	return func(x *Index) error {
		if n < 1 {
			return core.NewConfigurationError("top k", "must be at least 1")
		}
		x.topK = n
		return nil
	}
}

// WithSimilarityThreshold sets the minimum cosine similarity of a result.
func WithSimilarityThreshold(t float64) Option {
	return func(x *Index) error {
		if t < -1 || t > 1 {
			return core.NewConfigurationError("similarity threshold", "must be within [-1, 1]")
		}
		x.threshold = t
		return nil
	}
}

// WithFallbackThreshold sets the best filtered similarity below which
// TwoPhaseSearch also runs an unfiltered search.
func WithFallbackThreshold(t float64) Option {
	return func(x *Index) error {
		if t < -1 || t > 1 {
			return core.NewConfigurationError("fallback threshold", "must be within [-1, 1]")
		}
		x.fallback = t
		return nil
	}
}

// WithQueryCacheSize bounds the number of cached query embeddings.
func WithQueryCacheSize(n int) Option {
	return func(x *Index) error {
		if n < 1 {
			return core.NewConfigurationError("query cache size", "must be at least 1")
		}
		x.cacheSize = n
		return nil
	}
}

// WithBuildBatchSize sets how many articles are embedded per provider call
// while building the matrix.
func WithBuildBatchSize(n int) Option {
	return func(x *Index) error {
		if n < 1 {
			return core.NewConfigurationError("build batch size", "must be at least 1")
		}
		x.batchSize = n
		return nil
	}
}

// WithPoolSize sets the worker pool size used while building the matrix.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(x *Index) error {
		if size < 1 {
			size = 1
		}
		x.poolSize = size
		return nil
	}
}

// WithProgress writes build progress to w.
func WithProgress(w io.Writer) Option {
	return func(x *Index) error {
		x.progress = w
		return nil
	}
}
