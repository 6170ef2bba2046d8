package testutil

import (
	"bt-catalog/internal/encryption"
)

// NewTestSealer returns a snapshot sealer backed by the crypto-free test
// encryptor, set up with passphrase.
func NewTestSealer(passphrase string) *encryption.Sealer {
	enc := encryption.NewTestEncryptor()
	enc.Setup(passphrase)
	return encryption.NewSealer(enc)
}
