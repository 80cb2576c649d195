package records

import "github.com/shopspring/decimal"

// Percent returns (price-ref)/ref*100 rounded to two decimals. ref <= 0
// yields 0.
func Percent(price, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	p := decimal.NewFromFloat(price)
	r := decimal.NewFromFloat(ref)
	f, _ := p.Sub(r).Div(r).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return f
}

// NewVenuePrice builds a venue quote relative to base and impulse.
func NewVenuePrice(price, base, impulse float64) VenuePrice {
	return VenuePrice{
		Price:            price,
		VsBasePercent:    Percent(price, base),
		VsImpulsePercent: Percent(price, impulse),
	}
}
