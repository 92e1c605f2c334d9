package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"whisperkit/internal/domain"
)

// EncryptCBC encrypts plaintext with AES-256-CBC and PKCS#7 padding.
// An empty plaintext still produces one full block of padding, so the
// ciphertext is always a non-zero multiple of the block size.
func EncryptCBC(key [32]byte, iv [16]byte, plaintext []byte) []byte {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		// Key is a fixed-size array; this cannot happen.
		panic(err)
	}
	padded := padPKCS7(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out, padded)
	return out
}

// DecryptCBC decrypts an AES-256-CBC ciphertext and strips PKCS#7 padding.
// Padding errors are reported as ErrAuthenticationFailed; callers must have
// verified the MAC first, so a padding failure here never acts as an oracle.
func DecryptCBC(key [32]byte, iv [16]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", domain.ErrAuthenticationFailed, len(ciphertext))
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out, ciphertext)
	return unpadPKCS7(out, aes.BlockSize)
}

func padPKCS7(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpadPKCS7(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", domain.ErrAuthenticationFailed)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", domain.ErrAuthenticationFailed)
		}
	}
	return b[:len(b)-n], nil
}
