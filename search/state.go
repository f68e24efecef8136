package search

// State is the lifecycle stage of an Index.
type State int

const (
	// StateEmpty means no corpus is loaded. Searches return no results.
	StateEmpty State = iota
	// StateCorpusLoaded means articles are loaded but no matrix is available.
	StateCorpusLoaded
	// StateIndexReady means searches run against the embedding matrix.
	StateIndexReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateCorpusLoaded:
		return "corpus-loaded"
	case StateIndexReady:
		return "index-ready"
	}
	return "unknown"
}
