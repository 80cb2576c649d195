package postgres

import (
	"sort"
	"time"

	"impulsetracker/internal/records"
)

// ImpulseRecord mirrors one line of impulses.jsonl.
type ImpulseRecord struct {
	ID uint `gorm:"primaryKey"`

	Token         string    `gorm:"type:text;not null;index:idx_impulse_token_time"`
	DetectedAt    time.Time `gorm:"not null;index:idx_impulse_token_time"`
	BasePrice     float64   `gorm:"type:numeric;not null"`
	ImpulsePrice  float64   `gorm:"type:numeric;not null"`
	ChangePercent float64   `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (ImpulseRecord) TableName() string {
	return "impulse_record"
}

// CexCheckRecord is one venue's quote from one campaign check. A line of
// cex_comparison.jsonl becomes one row per venue.
type CexCheckRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	CampaignID string `gorm:"type:varchar(36);not null;index:idx_campaign_delay_venue,unique"`
	DelayMs    int64  `gorm:"not null;index:idx_campaign_delay_venue,unique"`
	Venue      string `gorm:"type:varchar(32);not null;index:idx_campaign_delay_venue,unique"`

	Token     string    `gorm:"type:text;not null;index:idx_check_token"`
	CheckedAt time.Time `gorm:"not null"`

	DexPrice         float64 `gorm:"type:numeric;not null"`
	BasePrice        float64 `gorm:"type:numeric;not null"`
	Price            float64 `gorm:"type:numeric;not null"`
	VsBasePercent    float64 `gorm:"type:numeric;not null"`
	VsImpulsePercent float64 `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (CexCheckRecord) TableName() string {
	return "cex_check_record"
}

func ToImpulseRecord(r records.Impulse) *ImpulseRecord {
	return &ImpulseRecord{
		Token:         r.Token,
		DetectedAt:    r.Time,
		BasePrice:     r.BasePrice,
		ImpulsePrice:  r.ImpulsePrice,
		ChangePercent: r.ChangePercent,
	}
}

// ToCheckRecords flattens a check into per-venue rows, ordered by venue.
func ToCheckRecords(r records.Check) ([]CexCheckRecord, error) {
	delay, err := r.Delay()
	if err != nil {
		return nil, err
	}

	venues := make([]string, 0, len(r.CexPrices))
	for v := range r.CexPrices {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	rows := make([]CexCheckRecord, 0, len(venues))
	for _, v := range venues {
		vp := r.CexPrices[v]
		rows = append(rows, CexCheckRecord{
			CampaignID:       r.CampaignID,
			DelayMs:          delay.Milliseconds(),
			Venue:            v,
			Token:            r.Token,
			CheckedAt:        r.Time,
			DexPrice:         r.DexPrice,
			BasePrice:        r.BasePrice,
			Price:            vp.Price,
			VsBasePercent:    vp.VsBasePercent,
			VsImpulsePercent: vp.VsImpulsePercent,
		})
	}
	return rows, nil
}
