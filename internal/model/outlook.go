package model

// Outlook is a human-friendly growth confidence band for a projection.
// Keep these values stable; they are intended for CSV and JSON output.
type Outlook string

const (
	OutlookHigh      Outlook = "HIGH"
	OutlookModerate  Outlook = "MODERATE"
	OutlookUncertain Outlook = "UNCERTAIN"
)

func OutlookFromGrowthProbability(pct float64) Outlook {
	switch {
	case pct > 70:
		return OutlookHigh
	case pct > 50:
		return OutlookModerate
	default:
		return OutlookUncertain
	}
}
