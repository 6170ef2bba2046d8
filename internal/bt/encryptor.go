package bt

import "io"

// Encryptor protects catalog snapshots before they leave the host.
// Encryption needs only the public key; decryption needs the passphrase that
// unlocks the private key.
type Encryptor interface {
	// Setup generates the key pair. Called once by `bt config init`.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a context able to
	// decrypt snapshots for the rest of the session.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
