package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/records"
	"impulsetracker/pkg/storage/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=127.0.0.1 port=1 user=fail password=fail dbname=fail sslmode=disable connect_timeout=1"

	_, err := postgres.NewClient(invalidDSN)
	assert.Error(t, err)
}

// localConfig points at a developer database; tests needing it are skipped
// unless POSTGRES_TEST=1.
func localConfig(t *testing.T) config.PostgresConfig {
	if os.Getenv("POSTGRES_TEST") != "1" {
		t.Skip("POSTGRES_TEST not set")
	}
	return config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "impulsetracker_test",
		SSLMode:  "disable",
		TimeZone: "UTC",

		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
	}
}

// go test -v --run TestRecordSink
func TestRecordSink(t *testing.T) {
	cfg := localConfig(t)

	client, err := postgres.InitializeAndMigrate(cfg, "dev", true)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.True(t, client.IsHealthy(ctx))

	token := "TEST" + uuid.NewString()[:8]
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, client.WriteImpulse(ctx, records.Impulse{
		Time: now, Token: token, BasePrice: 1, ImpulsePrice: 1.2, ChangePercent: 20,
	}))

	campaign := uuid.NewString()
	check := records.Check{
		Time: now, CampaignID: campaign, TimeAfterImpulse: "5s", Token: token, DexPrice: 1.2, BasePrice: 1,
		CexPrices: map[string]records.VenuePrice{"gateio_spot": records.NewVenuePrice(1.1, 1, 1.2)},
	}
	require.NoError(t, client.WriteCheck(ctx, check))
	require.NoError(t, client.WriteCheck(ctx, check)) // duplicate skipped

	imps, err := client.ImpulsesByToken(ctx, token)
	require.NoError(t, err)
	require.Len(t, imps, 1)
	assert.Equal(t, 20.0, imps[0].ChangePercent)

	rows, err := client.ChecksByCampaign(ctx, campaign)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5000), rows[0].DelayMs)

	require.NoError(t, client.DeleteBefore(ctx, now.Add(time.Hour)))
	imps, err = client.ImpulsesByToken(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, imps)
}
