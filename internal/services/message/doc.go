// Package message runs the duplex chat loop over an established session.
//
// One goroutine encrypts and sends input lines, another receives and
// decrypts frames from the peer. Whichever finishes first decides the
// session's end reason and half-closes the connection so the other
// unblocks; both are joined before the connection is closed.
package message
