// Package session establishes ratchet sessions over the relay.
//
// It runs the initiator side of the hybrid handshake against fetched
// pre-key bundles, persists session records, and exposes lookups for the
// message service.
package session
