// Package main runs the in-memory HTTP relay used by whisperkit during
// development and tests. It stores published prekey bundles and queues
// encrypted envelopes for recipients until they fetch and ack them.
//
// HTTP API
//
//	POST /register
//	    Store a user's PreKeyBundle (identity key, signed prekey + sig,
//	    KEM prekey + sig, one-time prekeys).
//
//	GET /prekey/{username}
//	    Return the published PreKeyBundle for {username}, consuming one
//	    one-time prekey per fetch.
//
//	POST /msg/{username}
//	    Enqueue an Envelope destined to {username}. If Timestamp is zero,
//	    the server fills it with the current Unix time.
//
//	GET /msg/{username}?limit=N
//	    Return up to N queued Envelopes without removing them. If limit is
//	    absent or greater than the queue length, all are returned.
//
//	POST /msg/{username}/ack { "count": N }
//	    Drop the first N queued envelopes. If N exceeds the queue length,
//	    the queue is cleared.
//
// All state is held in memory and lost on process exit. The relay is an
// untrusted middleman: it never sees plaintext or private keys, only
// ciphertext and public bundles.
package main
