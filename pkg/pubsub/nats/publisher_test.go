package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/records"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runTestWithInMemoryNATS(t *testing.T) string {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1 // random port
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s.ClientURL()
}

// go test -v --run TestConnectEmptyURL
func TestConnectEmptyURL(t *testing.T) {
	_, err := Connect(config.NATSConfig{}, zap.NewNop())
	assert.EqualError(t, err, "nats url is required")
}

// go test -v --run TestSubjects
func TestSubjects(t *testing.T) {
	p := &Publisher{prefix: "impulsetracker"}
	assert.Equal(t, "impulsetracker.impulse.BONK", p.ImpulseSubject("bonk"))
	assert.Equal(t, "impulsetracker.check.WIF", p.CheckSubject("WIF"))

	p.prefix = ""
	assert.Equal(t, "check.WIF", p.CheckSubject("WIF"))
}

// go test -v --run TestPublishRecords
func TestPublishRecords(t *testing.T) {
	url := runTestWithInMemoryNATS(t)

	p, err := Connect(config.NATSConfig{URL: url, SubjectPrefix: "test"}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, p.Ready())

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	_, err = sub.ChanSubscribe("test.>", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	ctx := context.Background()
	require.NoError(t, p.WriteImpulse(ctx, records.Impulse{Token: "BONK", ChangePercent: 20}))
	require.NoError(t, p.WriteCheck(ctx, records.Check{Token: "BONK", TimeAfterImpulse: "5s"}))

	got := make(map[string][]byte)
	for len(got) < 2 {
		select {
		case m := <-msgs:
			got[m.Subject] = m.Data
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of 2 messages", len(got))
		}
	}

	var imp records.Impulse
	require.NoError(t, json.Unmarshal(got["test.impulse.BONK"], &imp))
	assert.Equal(t, 20.0, imp.ChangePercent)
	assert.Contains(t, got, "test.check.BONK")

	require.NoError(t, p.Close())
	assert.False(t, p.Ready())
	require.NoError(t, p.Close())
}
