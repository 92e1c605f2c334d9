// Package relay implements the store-and-forward hop between peers: an
// HTTP client for the services and the matching in-memory server.
//
// The relay never sees plaintext. It stores pre-key bundles, hands out one
// one-time pre-key per bundle fetch, and queues encrypted envelopes until
// the recipient fetches and acks them.
//
// All requests are JSON over HTTP and accept a context for cancellation
// and deadlines. Non-2xx statuses are returned as errors with the HTTP
// method, full URL, and status text to aid diagnostics.
package relay
