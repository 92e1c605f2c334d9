package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/cipher"
	"whisperkit/internal/protocol/pqxdh"
	"whisperkit/internal/protocol/session"
	"whisperkit/internal/protocol/wire"
	"whisperkit/internal/services/peerlock"
)

// ErrNoSession indicates there is no stored session with the peer.
var ErrNoSession = errors.New("no session with peer; run Initiate first")

// Service sends and receives messages over the relay.
//
// High-level flow:
//   - Send: load the peer's session record, encrypt with the session
//     cipher (the handshake wrapper rides along until acknowledged),
//     persist the advanced state, then post via the relay.
//   - Receive: fetch envelopes, bootstrap a session from the pre-key
//     material on first contact, decrypt in order, persist ratchet state,
//     then ack only what was processed.
type Service struct {
	idStore      domain.IdentityStore
	prekeyStore  domain.PreKeyStore
	sessionStore domain.SessionStore
	relayClient  domain.RelayClient

	locks peerlock.Map
}

// New constructs a message service with the given stores and relay client.
func New(
	idStore domain.IdentityStore,
	prekeyStore domain.PreKeyStore,
	sessionStore domain.SessionStore,
	relayClient domain.RelayClient,
) *Service {
	return &Service{
		idStore:      idStore,
		prekeyStore:  prekeyStore,
		sessionStore: sessionStore,
		relayClient:  relayClient,
	}
}

// Send encrypts plaintext for the peer and posts it to the relay.
//
// The updated ratchet state is persisted before the envelope is posted:
// losing a sent message is recoverable, reusing a message key is not.
func (s *Service) Send(ctx context.Context, passphrase string, from, to domain.Username, plaintext []byte) error {
	unlock := s.locks.Lock(string(to))
	defer unlock()

	blob, ok, err := s.sessionStore.LoadSessionRecord(to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}
	st, err := session.Unmarshal(blob)
	if err != nil {
		return err
	}

	msg, err := cipher.Encrypt(st, plaintext)
	if err != nil {
		return err
	}

	updated, err := st.Marshal()
	if err != nil {
		return err
	}
	if err := s.sessionStore.SaveSessionRecord(to, updated); err != nil {
		return err
	}

	return s.relayClient.SendMessage(ctx, domain.Envelope{
		From:      from,
		To:        to,
		Type:      msg.Type(),
		Payload:   msg.Serialized(),
		Timestamp: time.Now().Unix(),
	})
}

// Receive fetches pending envelopes and decrypts them in order.
//
// The first envelope from a new peer must be a pre-key message; it carries
// everything needed to run the responder side of the handshake. Processing
// stops at the first envelope that cannot be handled, and only the
// envelopes handled successfully are acked, so nothing is lost to a
// mid-stream failure.
func (s *Service) Receive(ctx context.Context, passphrase string, me domain.Username, limit int) ([]domain.DecryptedMessage, error) {
	envs, err := s.relayClient.FetchMessages(ctx, me, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DecryptedMessage, 0, len(envs))
	processed := 0

	for i, env := range envs {
		plain, err := s.receiveOne(passphrase, env)
		if err != nil {
			if processed > 0 {
				if ackErr := s.relayClient.AckMessages(ctx, me, processed); ackErr != nil {
					return out, fmt.Errorf("ack %d messages: %w", processed, ackErr)
				}
			}
			return out, fmt.Errorf("envelope from %q: %w", env.From, err)
		}
		out = append(out, domain.DecryptedMessage{
			From:      env.From,
			To:        env.To,
			Plaintext: plain,
			Timestamp: env.Timestamp,
		})
		processed = i + 1
	}

	if processed > 0 {
		if err := s.relayClient.AckMessages(ctx, me, processed); err != nil {
			return out, fmt.Errorf("ack %d messages: %w", processed, err)
		}
	}
	return out, nil
}

func (s *Service) receiveOne(passphrase string, env domain.Envelope) ([]byte, error) {
	unlock := s.locks.Lock(string(env.From))
	defer unlock()

	blob, found, err := s.sessionStore.LoadSessionRecord(env.From)
	if err != nil {
		return nil, err
	}
	var st *session.State
	if found {
		if st, err = session.Unmarshal(blob); err != nil {
			return nil, err
		}
	}

	var inner *wire.SignalMessage
	switch env.Type {
	case wire.PreKeyType:
		pm, err := wire.ParsePreKeyMessage(env.Payload)
		if err != nil {
			return nil, err
		}
		if st == nil {
			// First contact: run the responder handshake from the pre-key
			// material the initiator sent.
			if st, err = s.bootstrap(passphrase, pm); err != nil {
				return nil, err
			}
		} else if pm.IdentityKey != st.RemoteIdentity {
			// The session pins the identity key seen at first contact; a
			// prekey message claiming a different one is not honored.
			return nil, fmt.Errorf("%w: prekey message from %s", domain.ErrUntrustedIdentity, env.From)
		}
		inner = pm.Message
	case wire.WhisperType:
		if st == nil {
			return nil, ErrNoSession
		}
		if inner, err = wire.ParseSignalMessage(env.Payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: envelope type %d", domain.ErrMalformedMessage, env.Type)
	}

	plain, err := cipher.Decrypt(st, inner)
	if err != nil {
		return nil, err
	}

	updated, err := st.Marshal()
	if err != nil {
		return nil, err
	}
	if err := s.sessionStore.SaveSessionRecord(env.From, updated); err != nil {
		return nil, err
	}
	return plain, nil
}

// bootstrap runs the responder side of the handshake for a first-contact
// pre-key message.
func (s *Service) bootstrap(passphrase string, pm *wire.PreKeyMessage) (*session.State, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}

	spk, ok, err := s.prekeyStore.LoadSignedPreKey(pm.SignedPreKeyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: signed prekey %d not found", domain.ErrInvalidKeyMaterial, pm.SignedPreKeyID)
	}

	kem, ok, err := s.prekeyStore.LoadKEMPreKey(pm.KEMPreKeyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: KEM prekey %d not found", domain.ErrInvalidKeyMaterial, pm.KEMPreKeyID)
	}

	params := pqxdh.BobParams{
		Identity:            id,
		SignedPreKey:        spk,
		KEMPreKey:           kem,
		KEMCiphertext:       pm.KEMCiphertext,
		TheirIdentityKey:    pm.IdentityKey,
		TheirBaseKey:        pm.BaseKey,
		TheirRegistrationID: pm.RegistrationID,
	}
	if pm.PreKeyID != 0 {
		opk, ok, err := s.prekeyStore.ConsumeOneTimePreKey(pm.PreKeyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: one-time prekey %d not found", domain.ErrInvalidKeyMaterial, pm.PreKeyID)
		}
		params.OneTimePreKey = &opk
	}
	return pqxdh.InitializeBob(params)
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
