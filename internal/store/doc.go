// Package store provides file-based persistence for whisperkit's key
// material and session state.
//
// It contains the concrete implementations of the domain storage
// interfaces, serialising data as JSON on disk. Private key material is
// sealed in a passphrase-derived envelope before it is written. All stores
// are concurrency-safe via internal locking and typically live under the
// user's configured home directory.
package store
