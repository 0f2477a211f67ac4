// Package main runs the safetalk relay.
//
// The relay holds a single two-party room. The first two TCP connections
// take its slots; a third is refused until one of them leaves. Each client
// sends a 32-byte nickname and then its length-prefixed ephemeral X25519
// public key. Once both keys are in, the relay sends each client the
// other's key exactly once and from then on forwards data frames between
// them verbatim. It never holds a session key and never decrypts.
//
// Admin HTTP API
//
//	GET /status
//	    JSON snapshot of both slots (state, nickname, key fingerprint),
//	    whether keys have been exchanged, and the pairing count.
//
//	GET /healthz
//	    200 "ok".
//
// Behaviour
//
//   - Listens on :5555 for clients and 127.0.0.1:8081 for admin by default.
//   - All state is held in memory and lost on process exit.
//   - A lightweight access log records method, path, remote, status, bytes and
//     duration for each admin request.
//   - SIGINT or SIGTERM closes the listeners and every live connection.
//
// The relay is an untrusted middleman: peers are not authenticated, so an
// operator could substitute its own keys. Compare fingerprints out of band.
package main
