// Package message sends and receives encrypted messages.
//
// It drives the session cipher over persisted ratchet state, bootstraps
// responder sessions from first-contact pre-key messages, and exchanges
// ciphertexts via the RelayClient.
package message
