package inference

import "github.com/YuminosukeSato/burnrate/pkg/errors"

// RiskTier labels a clipped burn-rate estimate.
type RiskTier string

// Risk tiers.
const (
	HighRisk     RiskTier = "high risk"
	ModerateRisk RiskTier = "moderate risk"
	LowRisk      RiskTier = "low risk"
)

// Tier maps a clipped prediction to its risk tier: above 0.7 is high,
// above 0.4 is moderate, anything else is low.
func Tier(v float64) RiskTier {
	switch {
	case v > 0.7:
		return HighRisk
	case v > 0.4:
		return ModerateRisk
	default:
		return LowRisk
	}
}

// Message is the advice shown next to an estimate.
func (t RiskTier) Message() string {
	switch t {
	case HighRisk:
		return "High burnout risk! Recommend immediate intervention."
	case ModerateRisk:
		return "Moderate burnout risk. Monitor closely."
	default:
		return "Low burnout risk. Keep up the support!"
	}
}

// Clip bounds v to [0, 1]. NaN clips to 0.
func Clip(v float64) float64 {
	return errors.ClipValue(v, 0, 1)
}
