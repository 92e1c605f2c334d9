package session

import (
	"context"
	"fmt"

	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/pqxdh"
	"whisperkit/internal/protocol/session"
	"whisperkit/internal/services/peerlock"
)

// Service performs the hybrid handshake and persists session records.
//
// This service handles:
//   - Retrieving our own identity keys.
//   - Fetching the peer's pre-key bundle from the relay.
//   - Verifying the bundle signatures and running the key agreement as the
//     initiator.
//   - Persisting the resulting ratchet state for the message service.
type Service struct {
	idStore      domain.IdentityStore
	bundleStore  domain.PreKeyBundleStore
	sessionStore domain.SessionStore
	relayClient  domain.RelayClient

	locks peerlock.Map
}

// New constructs a session service with the given stores and relay client.
func New(
	idStore domain.IdentityStore,
	bundleStore domain.PreKeyBundleStore,
	sessionStore domain.SessionStore,
	relayClient domain.RelayClient,
) *Service {
	return &Service{
		idStore:      idStore,
		bundleStore:  bundleStore,
		sessionStore: sessionStore,
		relayClient:  relayClient,
	}
}

// Initiate fetches the peer's bundle, runs the handshake as initiator and
// stores the resulting session record. Initiating over an existing session
// replaces it.
func (s *Service) Initiate(ctx context.Context, passphrase string, peer domain.Username) error {
	unlock := s.locks.Lock(string(peer))
	defer unlock()

	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return err
	}

	bundle, err := s.relayClient.FetchPreKeyBundle(ctx, peer)
	if err != nil {
		return fmt.Errorf("fetch bundle for %q: %w", peer, err)
	}
	if err := s.bundleStore.SavePreKeyBundle(bundle); err != nil {
		return err
	}

	st, err := pqxdh.InitializeAlice(id, bundle)
	if err != nil {
		return fmt.Errorf("handshake with %q: %w", peer, err)
	}

	blob, err := st.Marshal()
	if err != nil {
		return err
	}
	return s.sessionStore.SaveSessionRecord(peer, blob)
}

// Established reports whether a session with peer exists and has completed
// its handshake round trip.
func (s *Service) Established(peer domain.Username) (bool, error) {
	blob, ok, err := s.sessionStore.LoadSessionRecord(peer)
	if err != nil || !ok {
		return false, err
	}
	st, err := session.Unmarshal(blob)
	if err != nil {
		return false, err
	}
	return st.Established(), nil
}

// Delete removes the session record for peer.
func (s *Service) Delete(peer domain.Username) error {
	unlock := s.locks.Lock(string(peer))
	defer unlock()
	return s.sessionStore.DeleteSessionRecord(peer)
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
