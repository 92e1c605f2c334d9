package message

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkit/internal/domain"
	"whisperkit/internal/services/identity"
	"whisperkit/internal/services/prekey"
	sessionsvc "whisperkit/internal/services/session"
	"whisperkit/internal/store"
)

const testPassphrase = "Str0ng-Passphrase!"

// fakeRelay is an in-memory relay: registered bundles plus per-user message
// queues. FetchPreKeyBundle hands out one one-time pre-key per fetch, the
// way the real relay does.
type fakeRelay struct {
	mu      sync.Mutex
	bundles map[domain.Username]domain.PreKeyBundle
	queues  map[domain.Username][]domain.Envelope
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{
		bundles: make(map[domain.Username]domain.PreKeyBundle),
		queues:  make(map[domain.Username][]domain.Envelope),
	}
}

func (r *fakeRelay) RegisterPreKeyBundle(_ context.Context, b domain.PreKeyBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles[b.Username] = b
	return nil
}

func (r *fakeRelay) FetchPreKeyBundle(_ context.Context, username domain.Username) (domain.PreKeyBundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bundles[username]
	if !ok {
		return domain.PreKeyBundle{}, fmt.Errorf("no bundle for %q", username)
	}
	out := b
	if len(b.OneTimePreKeys) > 0 {
		out.OneTimePreKeys = []domain.OneTimePreKeyPublic{b.OneTimePreKeys[0]}
		b.OneTimePreKeys = b.OneTimePreKeys[1:]
		r.bundles[username] = b
	}
	return out, nil
}

func (r *fakeRelay) SendMessage(_ context.Context, env domain.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[env.To] = append(r.queues[env.To], env)
	return nil
}

func (r *fakeRelay) FetchMessages(_ context.Context, username domain.Username, limit int) ([]domain.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queues[username]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	return append([]domain.Envelope(nil), q...), nil
}

func (r *fakeRelay) AckMessages(_ context.Context, username domain.Username, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queues[username]
	if count > len(q) {
		count = len(q)
	}
	r.queues[username] = q[count:]
	return nil
}

var _ domain.RelayClient = (*fakeRelay)(nil)

// user bundles one party's stores and services.
type user struct {
	name     domain.Username
	messages *Service
	sessions *sessionsvc.Service
}

func newUser(t *testing.T, relay *fakeRelay, name domain.Username) *user {
	t.Helper()
	dir := t.TempDir()

	ids := store.NewFileIdentityStore(dir)
	pks := store.NewFilePreKeyStore(dir)
	bs := store.NewFileBundleStore(dir)
	ss := store.NewFileSessionStore(dir)

	_, _, err := identity.New(ids).GenerateIdentity(testPassphrase)
	require.NoError(t, err)

	pkSvc := prekey.New(ids, pks, bs)
	_, err = pkSvc.GenerateAndStorePreKeys(testPassphrase, 3)
	require.NoError(t, err)
	bundle, err := pkSvc.LoadPreKeyBundle(testPassphrase, name)
	require.NoError(t, err)
	require.NoError(t, relay.RegisterPreKeyBundle(context.Background(), bundle))

	return &user{
		name:     name,
		messages: New(ids, pks, ss, relay),
		sessions: sessionsvc.New(ids, bs, ss, relay),
	}
}

func TestMessageExchange(t *testing.T) {
	ctx := context.Background()
	relay := newFakeRelay()
	alice := newUser(t, relay, "alice")
	bob := newUser(t, relay, "bob")

	require.NoError(t, alice.sessions.Initiate(ctx, testPassphrase, "bob"))

	require.NoError(t, alice.messages.Send(ctx, testPassphrase, "alice", "bob", []byte("hi bob")))
	require.NoError(t, alice.messages.Send(ctx, testPassphrase, "alice", "bob", []byte("you there?")))

	got, err := bob.messages.Receive(ctx, testPassphrase, "bob", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hi bob", string(got[0].Plaintext))
	assert.Equal(t, "you there?", string(got[1].Plaintext))
	assert.Equal(t, domain.Username("alice"), got[0].From)

	// Bob can reply without ever calling Initiate.
	require.NoError(t, bob.messages.Send(ctx, testPassphrase, "bob", "alice", []byte("here")))
	got, err = alice.messages.Receive(ctx, testPassphrase, "alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "here", string(got[0].Plaintext))

	established, err := alice.sessions.Established("bob")
	require.NoError(t, err)
	assert.True(t, established)

	// Queues drain once acked.
	got, err = bob.messages.Receive(ctx, testPassphrase, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPreKeyMessageWithMismatchedIdentityRejected(t *testing.T) {
	ctx := context.Background()
	relay := newFakeRelay()
	alice := newUser(t, relay, "alice")
	bob := newUser(t, relay, "bob")
	mallory := newUser(t, relay, "mallory")

	require.NoError(t, alice.sessions.Initiate(ctx, testPassphrase, "bob"))
	require.NoError(t, alice.messages.Send(ctx, testPassphrase, "alice", "bob", []byte("hi")))
	_, err := bob.messages.Receive(ctx, testPassphrase, "bob", 0)
	require.NoError(t, err)

	// A fresh handshake under Alice's name but Mallory's identity key must
	// not displace the pinned session.
	require.NoError(t, mallory.sessions.Initiate(ctx, testPassphrase, "bob"))
	require.NoError(t, mallory.messages.Send(ctx, testPassphrase, "alice", "bob", []byte("new phone")))

	_, err = bob.messages.Receive(ctx, testPassphrase, "bob", 0)
	assert.ErrorIs(t, err, domain.ErrUntrustedIdentity)

	// The real session still works.
	require.NoError(t, relay.AckMessages(ctx, "bob", 1))
	require.NoError(t, alice.messages.Send(ctx, testPassphrase, "alice", "bob", []byte("still me")))
	got, err := bob.messages.Receive(ctx, testPassphrase, "bob", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "still me", string(got[0].Plaintext))
}

func TestSendWithoutSession(t *testing.T) {
	relay := newFakeRelay()
	alice := newUser(t, relay, "alice")

	err := alice.messages.Send(context.Background(), testPassphrase, "alice", "bob", []byte("x"))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestReceiveStopsAtUndecryptableEnvelope(t *testing.T) {
	ctx := context.Background()
	relay := newFakeRelay()
	alice := newUser(t, relay, "alice")
	bob := newUser(t, relay, "bob")

	require.NoError(t, alice.sessions.Initiate(ctx, testPassphrase, "bob"))
	require.NoError(t, alice.messages.Send(ctx, testPassphrase, "alice", "bob", []byte("good")))

	// A whisper envelope from a stranger cannot be handled; it must not
	// poison the envelopes before it.
	require.NoError(t, relay.SendMessage(ctx, domain.Envelope{
		From: "mallory", To: "bob", Type: 2, Payload: []byte{0x42},
	}))

	got, err := bob.messages.Receive(ctx, testPassphrase, "bob", 0)
	assert.Error(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", string(got[0].Plaintext))

	// The good envelope was acked, the bad one is still queued.
	envs, err := relay.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, domain.Username("mallory"), envs[0].From)
}
