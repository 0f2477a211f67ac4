package frame

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"safetalk/internal/crypto"
	"safetalk/internal/domain"
)

const (
	// HeaderSize is the width of the totalLength prefix.
	HeaderSize = 4
	// NonceSize is the per-frame nonce length.
	NonceSize = crypto.IVSize
	// DigestSize is the trailing digest length.
	DigestSize = crypto.DigestSize
	// MinFrameLength is the smallest valid totalLength.
	MinFrameLength = NonceSize + DigestSize

	// MaxCiphertext is the default ciphertext bound per frame.
	MaxCiphertext = 4096
	// MaxPlaintext is the largest plaintext that fits MaxCiphertext once
	// padded.
	MaxPlaintext = MaxCiphertext - 1
)

// Integrity selects how the frame digest is computed.
type Integrity string

const (
	IntegrityHMAC   Integrity = "hmac-sha256"
	IntegritySHA256 Integrity = "sha256"
)

// ParseIntegrity validates a mode name from configuration.
func ParseIntegrity(s string) (Integrity, error) {
	switch Integrity(s) {
	case IntegrityHMAC, IntegritySHA256:
		return Integrity(s), nil
	case "":
		return IntegrityHMAC, nil
	default:
		return "", fmt.Errorf("unknown integrity mode %q", s)
	}
}

// Option configures a Codec.
type Option func(*Codec)

// WithIntegrity selects the digest mode.
func WithIntegrity(m Integrity) Option {
	return func(c *Codec) { c.mode = m }
}

// WithMaxCiphertext overrides the per-frame ciphertext bound.
func WithMaxCiphertext(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.max = n
		}
	}
}

// Codec seals and opens frames under one session key. It holds no
// per-frame state, so one Codec may be shared by a sending and a receiving
// goroutine.
type Codec struct {
	key    domain.SessionKey
	macKey []byte
	mode   Integrity
	max    int
}

// NewCodec returns a Codec for key.
func NewCodec(key domain.SessionKey, opts ...Option) (*Codec, error) {
	c := &Codec{key: key, mode: IntegrityHMAC, max: MaxCiphertext}
	for _, o := range opts {
		o(c)
	}
	switch c.mode {
	case IntegrityHMAC:
		mk, err := crypto.DeriveMACKey(key)
		if err != nil {
			return nil, err
		}
		c.macKey = mk
	case IntegritySHA256:
	default:
		return nil, fmt.Errorf("unknown integrity mode %q", c.mode)
	}
	return c, nil
}

// Mode returns the codec's integrity mode.
func (c *Codec) Mode() Integrity { return c.mode }

// MaxPlaintext returns the largest plaintext Send accepts.
func (c *Codec) MaxPlaintext() int {
	return c.max - c.max%16 - 1
}

// Seal builds a complete frame for plaintext.
func (c *Codec) Seal(plaintext []byte) ([]byte, error) {
	if crypto.PaddedLen(len(plaintext)) > c.max {
		return nil, fmt.Errorf("%w: %d plaintext bytes, limit %d",
			domain.ErrFrameTooLarge, len(plaintext), c.MaxPlaintext())
	}
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	ct, err := crypto.EncryptCBC(plaintext, c.key, nonce)
	if err != nil {
		return nil, err
	}
	digest := c.digest(nonce[:], ct)

	total := NonceSize + len(ct) + DigestSize
	out := make([]byte, HeaderSize+total)
	binary.BigEndian.PutUint32(out[:HeaderSize], uint32(total))
	n := HeaderSize
	n += copy(out[n:], nonce[:])
	n += copy(out[n:], ct)
	copy(out[n:], digest[:])
	return out, nil
}

// Send seals plaintext and writes the frame with a single Write.
func (c *Codec) Send(w io.Writer, plaintext []byte) error {
	buf, err := c.Seal(plaintext)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: write frame: %w", domain.ErrTransport, err)
	}
	return nil
}

// Recv reads one frame, verifies its digest and returns the plaintext.
func (c *Codec) Recv(r io.Reader) ([]byte, error) {
	raw, err := ReadRaw(r, c.max)
	if err != nil {
		return nil, err
	}
	return c.Open(raw)
}

// Open verifies and decrypts a complete frame as returned by ReadRaw.
func (c *Codec) Open(raw []byte) ([]byte, error) {
	if len(raw) < HeaderSize+MinFrameLength {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFrameFormat, len(raw))
	}
	if int(binary.BigEndian.Uint32(raw[:HeaderSize])) != len(raw)-HeaderSize {
		return nil, fmt.Errorf("%w: length prefix does not match frame", domain.ErrFrameFormat)
	}
	body := raw[HeaderSize:]
	var nonce [NonceSize]byte
	copy(nonce[:], body[:NonceSize])
	ct := body[NonceSize : len(body)-DigestSize]
	got := body[len(body)-DigestSize:]

	want := c.digest(nonce[:], ct)
	if !crypto.DigestEqual(want[:], got) {
		return nil, domain.ErrIntegrity
	}
	return crypto.DecryptCBC(ct, c.key, nonce)
}

func (c *Codec) digest(nonce, ct []byte) [DigestSize]byte {
	if c.mode == IntegritySHA256 {
		return crypto.SumCiphertext(ct)
	}
	return crypto.MAC(c.macKey, nonce, ct)
}

// ReadRaw reads one frame's bytes, length prefix included, without
// verifying or decrypting it. The relay forwards these bytes verbatim.
func ReadRaw(r io.Reader, maxCiphertext int) ([]byte, error) {
	var hdr [HeaderSize]byte
	n, err := io.ReadFull(r, hdr[:])
	switch {
	case err == nil:
	case n == 0 && errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: truncated length prefix", domain.ErrFrameFormat)
	default:
		return nil, fmt.Errorf("%w: read frame length: %w", domain.ErrTransport, err)
	}

	total := binary.BigEndian.Uint32(hdr[:])
	if total < MinFrameLength {
		return nil, fmt.Errorf("%w: declared length %d below %d", domain.ErrFrameFormat, total, MinFrameLength)
	}
	if ctLen := total - MinFrameLength; uint64(ctLen) > uint64(maxCiphertext) {
		return nil, fmt.Errorf("%w: %d ciphertext bytes, limit %d", domain.ErrFrameTooLarge, ctLen, maxCiphertext)
	}

	out := make([]byte, HeaderSize+int(total))
	copy(out, hdr[:])
	if _, err := io.ReadFull(r, out[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: stream ended inside frame", domain.ErrFrameFormat)
		}
		return nil, fmt.Errorf("%w: read frame body: %w", domain.ErrTransport, err)
	}
	return out, nil
}
