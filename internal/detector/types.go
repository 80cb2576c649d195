package detector

import "time"

// Sample is one observed DEX price for a token.
type Sample struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Impulse is a relative move across the retained window that met the threshold.
type Impulse struct {
	Token        string    `json:"token"`
	Change       float64   `json:"change"`        // (impulse - base) / base, e.g. 0.2 for +20%
	BasePrice    float64   `json:"base_price"`    // oldest retained sample at detection
	ImpulsePrice float64   `json:"impulse_price"` // triggering sample
	DetectedAt   time.Time `json:"detected_at"`
}
