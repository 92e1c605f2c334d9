package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"whisperkit/internal/domain"
)

// reader walks a serialized message, failing with ErrMalformedMessage on
// truncation instead of panicking.
type reader struct {
	buf []byte
	off int
}

func (r *reader) byte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, fmt.Errorf("%w: truncated", domain.ErrMalformedMessage)
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: bad varint", domain.ErrMalformedMessage)
	}
	r.off += n
	return v, nil
}

// uvarint32 reads a varint that the format constrains to 32 bits (counters,
// key IDs, field lengths).
func (r *reader) uvarint32() (uint32, error) {
	v, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: varint %d overflows uint32", domain.ErrMalformedMessage, v)
	}
	return uint32(v), nil
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("%w: truncated", domain.ErrMalformedMessage)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) rest() []byte {
	b := r.buf[r.off:]
	r.off = len(r.buf)
	return b
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func appendUvarint(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}
