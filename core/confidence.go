package core

// Confidence is a coarse label for how well the best match answers a query.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Confidence thresholds on the top result's similarity.
const (
	HighConfidenceThreshold   = 0.8
	MediumConfidenceThreshold = 0.6
)

// AssessConfidence labels a ranked result list by its first entry.
// An empty list is always low confidence.
func AssessConfidence(results []*SearchResult) Confidence {
	if len(results) == 0 || results[0] == nil {
		return ConfidenceLow
	}
	top := results[0].Similarity
	switch {
	case top >= HighConfidenceThreshold:
		return ConfidenceHigh
	case top >= MediumConfidenceThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
