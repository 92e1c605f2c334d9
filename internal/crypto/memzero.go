package crypto

import "runtime"

// Wipe zeroes the buffer. Best-effort: it reduces the window in which key
// material lingers on the heap, it cannot scrub copies the runtime made.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

// WipeAll zeroes every buffer. The handshake paths accumulate several DH
// outputs that all need scrubbing once the secret is derived.
func WipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		Wipe(b)
	}
}
