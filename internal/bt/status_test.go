package bt

import (
	"errors"
	"testing"
)

func TestStatusWord_RoundTrip(t *testing.T) {
	collections := []int64{0, 1, 2, 1000, 1<<32 - 1, 1 << 40, MaxStatusCollection}
	statuses := []FileStatus{StatusQueued, StatusReserved1, StatusReserved2, StatusComplete}

	for _, c := range collections {
		for _, s := range statuses {
			w, err := NewStatusWord(c, s)
			if err != nil {
				t.Fatalf("NewStatusWord(%d, %v) error = %v", c, s, err)
			}
			if w.CollectionID() != c || w.Status() != s {
				t.Errorf("NewStatusWord(%d, %v) unpacks to (%d, %v)", c, s, w.CollectionID(), w.Status())
			}
			if uint64(w) != uint64(c)<<2|uint64(s) {
				t.Errorf("NewStatusWord(%d, %v) = %#x, want (c<<2)|s", c, s, uint64(w))
			}
		}
	}
}

func TestNewStatusWord_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		collection int64
		status     FileStatus
	}{
		{name: "negative collection", collection: -1, status: StatusQueued},
		{name: "collection too large", collection: MaxStatusCollection + 1, status: StatusQueued},
		{name: "status out of range", collection: 1, status: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStatusWord(tt.collection, tt.status); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("NewStatusWord() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCeiling_Ordering(t *testing.T) {
	ceiling, err := Ceiling(5)
	if err != nil {
		t.Fatalf("Ceiling() error = %v", err)
	}

	tests := []struct {
		collection int64
		status     FileStatus
		below      bool
	}{
		{collection: 4, status: StatusComplete, below: true},
		{collection: 5, status: StatusQueued, below: true},
		{collection: 5, status: StatusReserved2, below: true},
		{collection: 5, status: StatusComplete, below: false},
		{collection: 6, status: StatusQueued, below: false},
	}
	for _, tt := range tests {
		w, _ := NewStatusWord(tt.collection, tt.status)
		if got := w < ceiling; got != tt.below {
			t.Errorf("%v < Ceiling(5) = %v, want %v", w, got, tt.below)
		}
	}
	if w, _ := NewStatusWord(MaxStatusCollection, StatusComplete); !(w < AllStatuses) {
		t.Error("largest status word is not below AllStatuses")
	}
}

func TestStatusWord_Advance(t *testing.T) {
	w, _ := NewStatusWord(7, StatusComplete)

	lower, err := w.Advance(6, StatusQueued)
	if err != nil || lower != w {
		t.Errorf("Advance(6) = %v, %v; want unchanged %v", lower, err, w)
	}
	higher, err := w.Advance(8, StatusQueued)
	if err != nil || higher.CollectionID() != 8 || higher.Status() != StatusQueued {
		t.Errorf("Advance(8) = %v, %v", higher, err)
	}
	same, err := w.Advance(7, StatusReserved1)
	if err != nil || same.CollectionID() != 7 || same.Status() != StatusReserved1 {
		t.Errorf("Advance(7) = %v, %v", same, err)
	}
}

func TestStatusWord_String(t *testing.T) {
	w, _ := NewStatusWord(3, StatusReserved2)
	if got := w.String(); got != "3/reserved-2" {
		t.Errorf("String() = %q", got)
	}
	if got := AllStatuses.String(); got != "all" {
		t.Errorf("AllStatuses.String() = %q", got)
	}
}
