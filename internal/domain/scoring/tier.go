package scoring

// Tier is the impact band of a score.
type Tier string

const (
	Transformational Tier = "transformational"
	Significant      Tier = "significant"
	Moderate         Tier = "moderate"
	Small            Tier = "small"
	Minimal          Tier = "minimal"
)

// Tiers lists the bands from highest to lowest.
var Tiers = []Tier{Transformational, Significant, Moderate, Small, Minimal}

// ImpactTier maps a score to its band.
func ImpactTier(score int) Tier {
	switch {
	case score >= 9:
		return Transformational
	case score >= 7:
		return Significant
	case score >= 5:
		return Moderate
	case score >= 3:
		return Small
	default:
		return Minimal
	}
}
