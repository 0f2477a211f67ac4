package handshake

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"safetalk/internal/crypto"
	"safetalk/internal/domain"
)

// lengthSize is the width of the public-key length prefix.
const lengthSize = 4

// Result is what a completed key exchange yields.
type Result struct {
	Key         domain.SessionKey
	LocalPublic domain.X25519Public
	PeerPublic  domain.X25519Public
}

// WritePublicKey writes pub with its length prefix in a single write.
func WritePublicKey(w io.Writer, pub domain.X25519Public) error {
	buf := make([]byte, lengthSize+domain.X25519KeySize)
	binary.BigEndian.PutUint32(buf[:lengthSize], domain.X25519KeySize)
	copy(buf[lengthSize:], pub[:])
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: write public key: %w", domain.ErrTransport, err)
	}
	return nil
}

// ReadPublicKey reads a length-prefixed public key. Any declared length
// other than the X25519 key size is rejected before the key bytes are read.
func ReadPublicKey(r io.Reader) (domain.X25519Public, error) {
	var hdr [lengthSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return domain.X25519Public{}, readErr("public key length", err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n != domain.X25519KeySize {
		return domain.X25519Public{}, fmt.Errorf("%w: %w: declared length %d",
			domain.ErrHandshake, domain.ErrInvalidPeerKey, n)
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return domain.X25519Public{}, readErr("public key", err)
	}
	pub, err := crypto.ParseX25519Public(raw)
	if err != nil {
		return domain.X25519Public{}, fmt.Errorf("%w: %w", domain.ErrHandshake, err)
	}
	return pub, nil
}

// Exchange runs the ephemeral key exchange over rw.
//
// The local key is written while the peer key is being read, so it works
// over unbuffered transports such as net.Pipe as well as TCP. If ctx ends
// first Exchange returns its error, but the blocked I/O is only released
// once the caller closes rw.
func Exchange(ctx context.Context, rw io.ReadWriter) (Result, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return Result{}, fmt.Errorf("generate key pair: %w", err)
	}
	defer crypto.WipePrivate(&priv)

	type readResult struct {
		pub domain.X25519Public
		err error
	}
	writeDone := make(chan error, 1)
	readDone := make(chan readResult, 1)
	go func() { writeDone <- WritePublicKey(rw, pub) }()
	go func() {
		p, err := ReadPublicKey(rw)
		readDone <- readResult{p, err}
	}()

	var peer domain.X25519Public
	for pending := 2; pending > 0; pending-- {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case err := <-writeDone:
			if err != nil {
				return Result{}, err
			}
		case rr := <-readDone:
			if rr.err != nil {
				return Result{}, rr.err
			}
			peer = rr.pub
		}
	}

	secret, err := crypto.DH(priv, peer)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrHandshake, err)
	}
	defer crypto.Wipe(secret[:])

	return Result{
		Key:         crypto.DeriveSessionKey(secret[:]),
		LocalPublic: pub,
		PeerPublic:  peer,
	}, nil
}

// readErr classifies a failed handshake read: a stream that ended early is
// a malformed handshake, anything else is a transport failure.
func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", domain.ErrHandshake, what, err)
	}
	return fmt.Errorf("%w: read %s: %w", domain.ErrTransport, what, err)
}
