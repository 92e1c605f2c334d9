// Package commands defines the whisperkit CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init           Create the local identity
//   - fingerprint    Print the identity fingerprint
//   - register       Publish your prekey bundle to a relay
//   - start-session  Establish a session with a peer
//   - end-session    Delete the session with a peer
//   - send           Encrypt and send a message
//   - recv           Fetch and decrypt queued messages
//
// # Implementation
//
// The root command builds the dependency graph (stores, services, relay
// client) before any subcommand runs, so handlers share one app context.
package commands
