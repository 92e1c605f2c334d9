package session

import (
	"encoding/hex"
	"fmt"
	"strings"

	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/ratchet"
)

// skippedID keys the Skipped map. Hex of the ratchet key plus the index so
// the map survives JSON round trips.
func skippedID(key domain.X25519Public, index uint32) string {
	return fmt.Sprintf("%s-%d", hex.EncodeToString(key[:]), index)
}

func idMatchesKey(id string, key domain.X25519Public) bool {
	return strings.HasPrefix(id, hex.EncodeToString(key[:])+"-")
}

// SkipKeys advances the given receiving chain up to (not including) until,
// parking the message keys of every index passed over. It validates both
// the per-message gap and the total store size before touching anything, so
// a rejected message leaves no partial keys behind.
func (s *State) SkipKeys(rc *ReceiverChain, until uint32) error {
	if rc.Key.Index >= until {
		return nil
	}
	gap := until - rc.Key.Index
	if gap > MaxSkip {
		return fmt.Errorf("%w: message skips %d keys, limit %d",
			domain.ErrSkipWindowExceeded, gap, MaxSkip)
	}
	if uint32(len(s.Skipped))+gap > MaxSkip {
		return fmt.Errorf("%w: skipped-key store would exceed %d entries",
			domain.ErrSkipWindowExceeded, MaxSkip)
	}
	pqKey, _ := rc.PQ.Send()
	for rc.Key.Index < until {
		s.Skipped[skippedID(rc.RatchetKey, rc.Key.Index)] = rc.Key.MessageKeys(pqKey)
		rc.Key = rc.Key.Advance()
	}
	return nil
}

// TakeSkippedKey consumes a parked message key. Each key serves exactly one
// decryption; a replay of the same header finds nothing.
func (s *State) TakeSkippedKey(key domain.X25519Public, index uint32) (ratchet.MessageKeys, bool) {
	id := skippedID(key, index)
	mk, ok := s.Skipped[id]
	if ok {
		delete(s.Skipped, id)
	}
	return mk, ok
}
