// Package session connects a client to the relay.
//
// It dials the configured relay addresses in order, sends the nickname
// field, and runs the ephemeral key exchange, handing back a ready
// domain.Session for the chat loop.
package session
