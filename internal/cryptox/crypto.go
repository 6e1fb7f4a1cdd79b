// Package cryptox implements the encryption engine for journal envelopes:
// slow salted key derivation from the service secret plus a per-user salt,
// and AES-GCM authenticated encryption bound to a fixed domain context.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/json"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// domainContext is the associated data bound into every seal. An envelope
// produced by another application cannot authenticate here even with the
// right key.
const domainContext = "ma_spiritualite"

// DefaultIterations is the PBKDF2 work factor. Deriving a key must stay
// deliberately slow; never lower this below 100k in production.
const DefaultIterations = 100_000

// DeriveKey stretches the service secret and a per-user salt into an AES-256
// key using PBKDF2-SHA512. An attacker needs both inputs to derive a usable
// key; the stored salt alone is worthless.
func DeriveKey(secret, salt []byte, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key(secret, salt, iterations, KeySize, sha512.New)
}

// Encrypt seals plaintext with AES-GCM under key, returning an envelope with
// a fresh random nonce and the authentication tag split out of the sealed
// output.
func Encrypt(plaintext, key []byte) (*Envelope, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(NonceSize)

	sealed := aesgcm.Seal(nil, nonce, plaintext, []byte(domainContext))

	// Seal appends the tag; keep the three fields explicit.
	split := len(sealed) - TagSize
	return &Envelope{
		Ciphertext: sealed[:split],
		Nonce:      nonce,
		Tag:        sealed[split:],
	}, nil
}

// Decrypt opens an envelope, verifying the authentication tag. Any failure
// (wrong key, corruption, tampering, malformed fields) yields the same
// common.ErrDecryptionFailed so the cause is never observable.
func Decrypt(env *Envelope, key []byte) ([]byte, error) {
	if env == nil || len(env.Nonce) != NonceSize || len(env.Tag) != TagSize {
		return nil, common.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.Tag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := aesgcm.Open(nil, env.Nonce, sealed, []byte(domainContext))
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}

// EncryptJSON serializes v to JSON and seals it through the same primitive.
// Used for structured values such as tag lists.
func EncryptJSON(v any, key []byte) (*Envelope, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Encrypt(plaintext, key)
}

// DecryptJSON opens an envelope and unmarshals the plaintext into v.
// An unmarshal error after a successful open is reported as-is: the tag
// already authenticated the payload, so it is not a decryption failure.
func DecryptJSON(env *Envelope, key []byte, v any) error {
	plaintext, err := Decrypt(env, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}
