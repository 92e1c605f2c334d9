package relay

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"whisperkit/internal/domain"
)

func newTestRelay(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(NewServer(zaptest.NewLogger(t)).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestBundleRegistrationAndFetch(t *testing.T) {
	ctx := context.Background()
	c := newTestRelay(t)

	bundle := domain.PreKeyBundle{
		Username:       "bob",
		SignedPreKeyID: 1,
		OneTimePreKeys: []domain.OneTimePreKeyPublic{
			{ID: 1}, {ID: 2},
		},
	}
	require.NoError(t, c.RegisterPreKeyBundle(ctx, bundle))

	// Each fetch consumes one one-time pre-key.
	got, err := c.FetchPreKeyBundle(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, got.OneTimePreKeys, 1)
	assert.Equal(t, uint32(1), got.OneTimePreKeys[0].ID)

	got, err = c.FetchPreKeyBundle(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, got.OneTimePreKeys, 1)
	assert.Equal(t, uint32(2), got.OneTimePreKeys[0].ID)

	// Exhausted: the bundle still serves, without one-time keys.
	got, err = c.FetchPreKeyBundle(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, got.OneTimePreKeys)

	_, err = c.FetchPreKeyBundle(ctx, "nobody")
	assert.Error(t, err)
}

func TestEnvelopeQueue(t *testing.T) {
	ctx := context.Background()
	c := newTestRelay(t)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, c.SendMessage(ctx, domain.Envelope{
			From: "alice", To: "bob", Type: 2, Payload: []byte(text),
		}))
	}

	envs, err := c.FetchMessages(ctx, "bob", 2)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, []byte("one"), envs[0].Payload)
	assert.NotEmpty(t, envs[0].ID)

	// Fetch does not consume; only ack does.
	envs, err = c.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, envs, 3)

	require.NoError(t, c.AckMessages(ctx, "bob", 2))
	envs, err = c.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, []byte("three"), envs[0].Payload)
}
