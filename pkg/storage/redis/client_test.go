package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/records"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := New(context.Background(), config.RedisConfig{
		Addr:        mr.Addr(),
		Prefix:      "test:",
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

// go test -v --run TestWriteRecords
func TestWriteRecords(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.WriteImpulse(ctx, records.Impulse{Token: "BONK", BasePrice: 1, ImpulsePrice: 1.2, ChangePercent: 20}))
	require.NoError(t, c.WriteCheck(ctx, records.Check{
		CampaignID: "c1", TimeAfterImpulse: "5s", Token: "BONK",
		CexPrices: map[string]records.VenuePrice{"gateio_spot": records.NewVenuePrice(1.1, 1, 1.2)},
	}))

	reader := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer reader.Close()

	imps, err := reader.XRange(ctx, "test:impulses", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, imps, 1)
	assert.Equal(t, "BONK", imps[0].Values["token"])

	var got records.Impulse
	require.NoError(t, json.Unmarshal([]byte(imps[0].Values["data"].(string)), &got))
	assert.Equal(t, 20.0, got.ChangePercent)

	checks, err := reader.XRange(ctx, c.CheckStream(), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, checks, 1)
}

// go test -v --run TestNewUnreachable
func TestNewUnreachable(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	assert.Error(t, err)
}
