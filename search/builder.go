package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// embedAll embeds texts in batches on a worker pool. The result preserves
// input order. The first failure cancels the remaining batches.
func (x *Index) embedAll(parent context.Context, texts []string) ([][]float32, error) {
	pool, err := ants.NewPool(x.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var tracker *ProgressTracker
	if x.progress != nil {
		tracker = NewProgressTracker(x.progress, len(texts), x.batchSize)
		tracker.Start()
		defer tracker.Finish()
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += x.batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+x.batchSize, len(texts))

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}

			batch, err := x.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				fail(fmt.Errorf("embedding articles %d-%d: %w", start+1, end, err))
				return
			}
			if len(batch) != end-start {
				fail(fmt.Errorf("embedding articles %d-%d: got %d vectors", start+1, end, len(batch)))
				return
			}
			copy(vectors[start:end], batch)
			if tracker != nil {
				tracker.Increment(end - start)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
