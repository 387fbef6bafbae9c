package kernel

// FareBreakdown explains how an adjusted price was derived from planned and actual distance.
type FareBreakdown struct {
	BaseDistanceKm   float64 `json:"baseDistanceKm"`
	BasePrice        float64 `json:"basePrice"`
	PerKmRate        float64 `json:"perKmRate"`
	ActualDistanceKm float64 `json:"actualDistanceKm"`
	ExtraDistanceKm  float64 `json:"extraDistanceKm"`
	ExtraCharge      float64 `json:"extraCharge"`
	AdjustedPrice    float64 `json:"adjustedPrice"`
}
