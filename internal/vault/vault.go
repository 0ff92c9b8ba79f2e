// Package vault encrypts journal content with a user password.
//
// A blob is laid out as
//
//	[16 salt][32 password HMAC][12 nonce][ciphertext || 16 tag]
//
// The HMAC only proves the password is right, so callers can reject a wrong
// password before touching the ciphertext. AES-GCM authenticates the payload.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	hmacSize   = 32
	nonceSize  = 12
	tagSize    = 16
	keySize    = 32
	iterations = 200_000
)

var passwordCheck = []byte("password-check")

var (
	ErrMalformed     = errors.New("encrypted blob is too short or malformed")
	ErrWrongPassword = errors.New("incorrect password for encrypted data")
	ErrCorrupted     = errors.New("encrypted data is corrupted or has been tampered with")
)

// Blob is the parsed view of an encrypted payload.
type Blob struct {
	Salt         []byte
	PasswordHMAC []byte
	Nonce        []byte
	Ciphertext   []byte
}

// Parse splits raw into its parts without checking the password.
func Parse(raw []byte) (Blob, error) {
	if len(raw) < saltSize+hmacSize+nonceSize+tagSize {
		return Blob{}, ErrMalformed
	}
	b := Blob{
		Salt:         raw[:saltSize],
		PasswordHMAC: raw[saltSize : saltSize+hmacSize],
		Nonce:        raw[saltSize+hmacSize : saltSize+hmacSize+nonceSize],
		Ciphertext:   raw[saltSize+hmacSize+nonceSize:],
	}
	return b, nil
}

func (b Blob) Bytes() []byte {
	out := make([]byte, 0, len(b.Salt)+len(b.PasswordHMAC)+len(b.Nonce)+len(b.Ciphertext))
	out = append(out, b.Salt...)
	out = append(out, b.PasswordHMAC...)
	out = append(out, b.Nonce...)
	return append(out, b.Ciphertext...)
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
}

func checkMAC(key []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(passwordCheck)
	return m.Sum(nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under password with a fresh salt and nonce.
func Encrypt(password string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	key := deriveKey(password, salt)
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	b := Blob{
		Salt:         salt,
		PasswordHMAC: checkMAC(key),
		Nonce:        nonce,
		Ciphertext:   gcm.Seal(nil, nonce, plaintext, nil),
	}
	return b.Bytes(), nil
}

// IsPasswordCorrect derives the key and compares the password HMAC only.
// Malformed blobs report false.
func IsPasswordCorrect(password string, raw []byte) bool {
	b, err := Parse(raw)
	if err != nil {
		return false
	}
	return hmac.Equal(checkMAC(deriveKey(password, b.Salt)), b.PasswordHMAC)
}

// Decrypt verifies the password, then opens the ciphertext.
func Decrypt(password string, raw []byte) ([]byte, error) {
	b, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	key := deriveKey(password, b.Salt)
	if !hmac.Equal(checkMAC(key), b.PasswordHMAC) {
		return nil, ErrWrongPassword
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, b.Nonce, b.Ciphertext, nil)
	if err != nil {
		return nil, ErrCorrupted
	}
	return plain, nil
}

func EncryptToBase64(password string, plaintext []byte) (string, error) {
	raw, err := Encrypt(password, plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func DecryptFromBase64(password, data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decrypt(password, raw)
}
