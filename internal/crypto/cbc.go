package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"safetalk/internal/domain"
)

// IVSize is the CBC initialisation vector (nonce) length.
const IVSize = aes.BlockSize

// PaddedLen returns the ciphertext length EncryptCBC produces for n
// plaintext bytes.
func PaddedLen(n int) int {
	return (n/aes.BlockSize + 1) * aes.BlockSize
}

// EncryptCBC encrypts plaintext with AES-256-CBC and PKCS#7 padding.
func EncryptCBC(plaintext []byte, key domain.SessionKey, iv [IVSize]byte) ([]byte, error) {
	block, err := aes.NewCipher(key.Slice())
	if err != nil {
		return nil, err
	}
	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	out := make([]byte, len(plaintext)+pad)
	copy(out, plaintext)
	for i := len(plaintext); i < len(out); i++ {
		out[i] = byte(pad)
	}
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out, out)
	return out, nil
}

// DecryptCBC reverses EncryptCBC. A ciphertext that is not a whole number of
// blocks or carries invalid padding fails with domain.ErrCipher.
func DecryptCBC(ciphertext []byte, key domain.SessionKey, iv [IVSize]byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", domain.ErrCipher, len(ciphertext))
	}
	block, err := aes.NewCipher(key.Slice())
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out, ciphertext)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, fmt.Errorf("%w: bad padding", domain.ErrCipher)
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: bad padding", domain.ErrCipher)
		}
	}
	return out[:len(out)-pad], nil
}
