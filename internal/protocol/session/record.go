package session

import (
	"encoding/json"
	"fmt"

	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/ratchet"
)

// Marshal serializes the state to a session record. The record contains raw
// private key material; stores are expected to wrap it in an encrypted
// envelope before it touches disk.
func (s *State) Marshal() ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session record: %w", err)
	}
	return raw, nil
}

// Unmarshal restores a state from a session record.
func Unmarshal(raw []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: parse session record: %v", domain.ErrMalformedMessage, err)
	}
	if s.Version != recordVersion {
		return nil, fmt.Errorf("%w: session record version %d", domain.ErrVersionMismatch, s.Version)
	}
	if s.Skipped == nil {
		s.Skipped = make(map[string]ratchet.MessageKeys)
	}
	return &s, nil
}
