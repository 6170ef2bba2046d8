package bt

import "fmt"

// FileStatus is the 2-bit backup state stored in the low bits of a StatusWord.
type FileStatus uint8

const (
	StatusQueued FileStatus = iota
	StatusReserved1
	StatusReserved2
	StatusComplete
)

const (
	statusBits = 2
	statusMask = 1<<statusBits - 1

	// MaxStatusCollection is the largest collection id a StatusWord can carry
	// while still fitting the catalog's signed 64-bit column.
	MaxStatusCollection = 1<<(63-statusBits) - 1
)

func (s FileStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusReserved1:
		return "reserved-1"
	case StatusReserved2:
		return "reserved-2"
	case StatusComplete:
		return "complete"
	default:
		return fmt.Sprintf("FileStatus(%d)", uint8(s))
	}
}

// StatusWord packs the id of the collection that last confirmed a file
// together with its FileStatus: (collection << 2) | status.
//
// Ordering by StatusWord orders by collection first, so "every file not yet
// completed as of collection N" is the single range StatusWord < Ceiling(N).
type StatusWord uint64

// AllStatuses is the iteration ceiling that selects every file entry
// regardless of status.
const AllStatuses StatusWord = 1<<64 - 1

// NewStatusWord packs a collection id and status.
func NewStatusWord(collectionID int64, status FileStatus) (StatusWord, error) {
	if collectionID < 0 || collectionID > MaxStatusCollection {
		return 0, fmt.Errorf("%w: collection id %d does not fit a status word", ErrInvalidArgument, collectionID)
	}
	if status > StatusComplete {
		return 0, fmt.Errorf("%w: status %d exceeds 2 bits", ErrInvalidArgument, status)
	}
	return StatusWord(uint64(collectionID)<<statusBits | uint64(status)), nil
}

// Ceiling returns the StatusWord below which every file has not been
// completed as of collectionID.
func Ceiling(collectionID int64) (StatusWord, error) {
	return NewStatusWord(collectionID, StatusComplete)
}

// CollectionID returns the collection half of the word.
func (w StatusWord) CollectionID() int64 {
	return int64(uint64(w) >> statusBits)
}

// Status returns the enum half of the word.
func (w StatusWord) Status() FileStatus {
	return FileStatus(uint64(w) & statusMask)
}

// Advance returns the word for collectionID/status unless that would lower
// the encoded collection id, in which case the receiver is returned as is.
func (w StatusWord) Advance(collectionID int64, status FileStatus) (StatusWord, error) {
	if collectionID < w.CollectionID() {
		return w, nil
	}
	return NewStatusWord(collectionID, status)
}

func (w StatusWord) String() string {
	if w == AllStatuses {
		return "all"
	}
	return fmt.Sprintf("%d/%s", w.CollectionID(), w.Status())
}
