package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"bt-catalog/internal/bt"
)

// testHeader marks output of TestEncryptor so sealed snapshots never equal
// their plaintext.
var testHeader = []byte("BTSNAP\x00\x01")

// ErrWrongPassphrase is returned by TestEncryptor.Unlock.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// TestEncryptor is a deterministic, crypto-free encryptor for tests and
// throwaway setups. It frames data with a fixed header and remembers the
// Setup passphrase so Unlock can reject a different one.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ bt.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// Unlock accepts any passphrase until Setup has been called.
func (e *TestEncryptor) Unlock(passphrase string) (bt.DecryptionContext, error) {
	if e.configured && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header written by TestEncryptor.
type TestDecryptionContext struct{}

var _ bt.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
