package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"whisperkit/internal/domain"
)

// fingerprintBytes is the truncated digest length; 10 bytes renders as
// five groups of four hex characters.
const fingerprintBytes = 10

// Fingerprint derives a short human-comparable fingerprint of an identity
// agreement key, e.g. "1f3b 08cc 42aa 90ef d217".
func Fingerprint(pub domain.X25519Public) domain.Fingerprint {
	sum := sha256.Sum256(pub.Slice())
	hexed := hex.EncodeToString(sum[:fingerprintBytes])
	groups := make([]string, 0, len(hexed)/4)
	for i := 0; i < len(hexed); i += 4 {
		groups = append(groups, hexed[i:i+4])
	}
	return domain.Fingerprint(strings.Join(groups, " "))
}
