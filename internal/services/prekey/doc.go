// Package prekey manages signed, one-time and KEM pre-keys.
//
// It rotates the current signed and KEM pre-keys, tracks one-time pre-key
// consumption, and assembles the public bundle registered with the relay.
package prekey
