package encryption

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"bt-catalog/internal/bt"
)

func TestSealUnseal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty", input: nil},
		{name: "small", input: []byte("SQLite format 3\x00")},
		{name: "repetitive", input: bytes.Repeat([]byte("page"), 1<<16)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewTestEncryptor()
			var sealed bytes.Buffer
			if err := Seal(e, bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if len(tt.input) > 1024 && sealed.Len() >= len(tt.input) {
				t.Errorf("sealed size %d not smaller than input %d", sealed.Len(), len(tt.input))
			}

			dc, err := e.Unlock("")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var out bytes.Buffer
			if err := Unseal(dc, &sealed, &out); err != nil {
				t.Fatalf("Unseal() error = %v", err)
			}
			if !bytes.Equal(out.Bytes(), tt.input) {
				t.Errorf("round-trip returned %d bytes, want %d", out.Len(), len(tt.input))
			}
		})
	}
}

func TestSealUnseal_Age(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup("pw"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	input := bytes.Repeat([]byte("catalog row "), 4096)

	var sealed bytes.Buffer
	if err := Seal(e, bytes.NewReader(input), &sealed); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	dc, err := e.Unlock("pw")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var out bytes.Buffer
	if err := Unseal(dc, &sealed, &out); err != nil {
		t.Fatalf("Unseal() error = %v", err)
	}
	if !bytes.Equal(out.Bytes(), input) {
		t.Error("age round-trip mismatch")
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestSeal_ReaderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var sealed bytes.Buffer
	err := Seal(NewTestEncryptor(), failingReader{err: boom}, &sealed)
	if !errors.Is(err, boom) {
		t.Errorf("Seal() error = %v, want wrapping %v", err, boom)
	}
}

func TestUnseal_Garbage(t *testing.T) {
	t.Parallel()

	var dc bt.DecryptionContext = &TestDecryptionContext{}
	in := append(append([]byte{}, testHeader...), []byte("not zstd at all")...)
	if err := Unseal(dc, bytes.NewReader(in), io.Discard); err == nil {
		t.Error("Unseal() of non-zstd payload should return error")
	}
}

func TestSealer_WrongPassphrase(t *testing.T) {
	t.Parallel()

	e := NewTestEncryptor()
	if err := e.Setup("right"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	s := NewSealer(e)

	var sealed bytes.Buffer
	if err := s.Seal(bytes.NewReader([]byte("rows")), &sealed); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if err := s.Unseal("wrong", bytes.NewReader(sealed.Bytes()), io.Discard); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Unseal(wrong) error = %v, want ErrWrongPassphrase", err)
	}
	var out bytes.Buffer
	if err := s.Unseal("right", &sealed, &out); err != nil {
		t.Fatalf("Unseal(right) error = %v", err)
	}
	if out.String() != "rows" {
		t.Errorf("Unseal() = %q, want %q", out.String(), "rows")
	}
}
