package feedback

// Bonus parameters.
const (
	// MaxBonus is the largest similarity bonus an article can earn.
	MaxBonus = 0.15

	// MinSamples is the number of signals needed before any bonus applies.
	MinSamples = 3

	// SaturationSamples is the number of signals at which the bonus stops
	// growing with volume.
	SaturationSamples = 10
)

// Bonus returns the similarity bonus for an article with the given counters.
// The result is within [0, MaxBonus].
func Bonus(helpful, total int) float64 {
	if total < MinSamples {
		return 0
	}
	if helpful < 0 {
		helpful = 0
	}
	if helpful > total {
		helpful = total
	}
	rate := float64(helpful) / float64(total)
	volume := min(float64(total)/SaturationSamples, 1.0)
	return rate * MaxBonus * volume
}
