// Package wire defines the serialized message formats the session engine
// exchanges: whisper (post-handshake) messages, pre-key (handshake-carrying)
// messages, and the stored pre-key record forms.
//
// Formats are bit-exact contracts with deployed peers. Every variant of
// CiphertextMessage owns its serialized byte form; equality and digesting
// operate on those bytes.
package wire
