package cryptox

const (
	// KeySize is the AES-256 key length produced by derivation.
	KeySize = 32
	// SaltSize is the per-user salt length generated at signup.
	SaltSize = 32
	// NonceSize is the standard GCM nonce length.
	NonceSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16
)

// Envelope is the tuple produced by authenticated encryption. The three
// fields are stored as separate columns so a parse failure can never
// masquerade as a decryption failure.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}
