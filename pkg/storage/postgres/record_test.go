package postgres

import (
	"testing"
	"time"

	"impulsetracker/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestToCheckRecords
func TestToCheckRecords(t *testing.T) {
	ts := time.Date(2025, 5, 1, 12, 0, 5, 0, time.UTC)
	rows, err := ToCheckRecords(records.Check{
		Time:             ts,
		CampaignID:       "c-1",
		TimeAfterImpulse: "30s",
		Token:            "BONK",
		DexPrice:         1.2,
		BasePrice:        1.0,
		CexPrices: map[string]records.VenuePrice{
			"lbank_spot":  records.NewVenuePrice(1.1, 1.0, 1.2),
			"gateio_spot": records.NewVenuePrice(1.3, 1.0, 1.2),
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "gateio_spot", rows[0].Venue)
	assert.Equal(t, int64(30000), rows[0].DelayMs)
	assert.Equal(t, 30.0, rows[0].VsBasePercent)
	assert.Equal(t, "lbank_spot", rows[1].Venue)
	assert.Equal(t, -8.33, rows[1].VsImpulsePercent)
	assert.Equal(t, ts, rows[1].CheckedAt)

	_, err = ToCheckRecords(records.Check{TimeAfterImpulse: "later"})
	assert.Error(t, err)
}

// go test -v --run TestToImpulseRecord
func TestToImpulseRecord(t *testing.T) {
	r := ToImpulseRecord(records.Impulse{Token: "WIF", BasePrice: 2, ImpulsePrice: 1.5, ChangePercent: -25})
	assert.Equal(t, "WIF", r.Token)
	assert.Equal(t, -25.0, r.ChangePercent)
	assert.Equal(t, "impulse_record", r.TableName())
}
