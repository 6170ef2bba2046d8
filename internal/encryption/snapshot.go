package encryption

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"bt-catalog/internal/bt"
)

// Seal compresses r with zstd and encrypts the compressed stream with enc,
// writing the result to w. Catalog files compress well; ciphertext does
// not, so compression has to come first.
func Seal(enc bt.Encryptor, r io.Reader, w io.Writer) error {
	pr, pw := io.Pipe()

	go func() {
		zw, err := zstd.NewWriter(pw,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithZeroFrames(true))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(zw, r); err != nil {
			zw.Close()
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(zw.Close())
	}()

	if err := enc.Encrypt(pr, w); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("sealing snapshot: %w", err)
	}
	return nil
}

// Unseal reverses Seal.
func Unseal(dc bt.DecryptionContext, r io.Reader, w io.Writer) error {
	pr, pw := io.Pipe()
	// Unblocks the decrypting goroutine if decompression stops early.
	defer pr.Close()

	go func() {
		pw.CloseWithError(dc.Decrypt(r, pw))
	}()

	zr, err := zstd.NewReader(pr)
	if err != nil {
		return fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	if _, err := io.Copy(w, zr); err != nil {
		return fmt.Errorf("unsealing snapshot: %w", err)
	}
	return nil
}

// Sealer adapts an Encryptor to bt.SnapshotSealer.
type Sealer struct {
	enc bt.Encryptor
}

var _ bt.SnapshotSealer = (*Sealer)(nil)

func NewSealer(enc bt.Encryptor) *Sealer {
	return &Sealer{enc: enc}
}

func (s *Sealer) Seal(r io.Reader, w io.Writer) error {
	return Seal(s.enc, r, w)
}

// Unseal unlocks the private key with passphrase and reverses Seal.
func (s *Sealer) Unseal(passphrase string, r io.Reader, w io.Writer) error {
	dc, err := s.enc.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking key: %w", err)
	}
	return Unseal(dc, r, w)
}
