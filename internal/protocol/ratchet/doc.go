// Package ratchet implements the key-derivation halves of the Double
// Ratchet: the symmetric chain ratchet that advances once per message, and
// the root-key KDF applied at each Diffie-Hellman ratchet step.
//
// Everything in this package is a pure function over fixed-size byte
// arrays. State transitions (which chain advances when, what gets archived)
// belong to the session package.
package ratchet
