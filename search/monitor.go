package search

import "github.com/poiesic/ticketrank/core"

// SearchMonitor provides hooks for observing the search process.
// Implementations can use these callbacks for debugging, metrics, or visualization.
// All methods are called synchronously during search execution.
type SearchMonitor interface {
	Start(query, category string)
	QueryEmbedding(cacheHit bool)
	AfterScoring(aboveThreshold int)
	CategoryRejected(article *core.Article, similarity float64)
	Fallback(filteredBest, unfilteredBest float64, usedUnfiltered bool)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                           {}
func (n *noopMonitor) QueryEmbedding(_ bool)                       {}
func (n *noopMonitor) AfterScoring(_ int)                          {}
func (n *noopMonitor) CategoryRejected(_ *core.Article, _ float64) {}
func (n *noopMonitor) Fallback(_, _ float64, _ bool)               {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)               {}
