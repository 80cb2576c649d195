package records

import "time"

const (
	ImpulsesFile   = "impulses.jsonl"
	ComparisonFile = "cex_comparison.jsonl"
)

// Impulse is the record written when a DEX impulse is declared.
type Impulse struct {
	Time          time.Time `json:"time"`
	Token         string    `json:"token"`
	BasePrice     float64   `json:"base_price"`
	ImpulsePrice  float64   `json:"impulse_price"`
	ChangePercent float64   `json:"change_percent"`
}

// VenuePrice is one venue's quote within a check.
type VenuePrice struct {
	Price            float64 `json:"price"`
	VsBasePercent    float64 `json:"vs_base_percent"`
	VsImpulsePercent float64 `json:"vs_impulse_percent"`
}

// Check is the record written at each campaign delay.
type Check struct {
	Time             time.Time             `json:"time"`
	CampaignID       string                `json:"campaign_id"`
	TimeAfterImpulse string                `json:"time_after_impulse"` // e.g. "5s"
	Token            string                `json:"token"`
	DexPrice         float64               `json:"dex_price"` // impulse price
	BasePrice        float64               `json:"base_price"`
	CexPrices        map[string]VenuePrice `json:"cex_prices"`
}

// Delay parses TimeAfterImpulse.
func (c Check) Delay() (time.Duration, error) {
	return time.ParseDuration(c.TimeAfterImpulse)
}
