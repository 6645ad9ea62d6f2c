// Package bitmap provides a fixed-size bit set with first-fit scanning.
package bitmap

import (
	"math/bits"

	"github.com/jmgilman/go/inodefs/internal/errs"
)

// BitsPerRow is the number of bits stored in one byte of the bitmap.
const BitsPerRow = 8

// Bitmap tracks one bit per slot. A set bit means the slot is allocated.
// Bit i lives in byte i/8 at position i%8, least significant bit first.
type Bitmap struct {
	bytes []byte
	size  int
}

// New creates a bitmap with size slots, all clear.
func New(size int) *Bitmap {
	if size < 0 {
		size = 0
	}
	return &Bitmap{bytes: make([]byte, Rows(size)), size: size}
}

// FromBytes creates a bitmap with size slots from its packed representation.
// Bits beyond size must be clear.
func FromBytes(size int, packed []byte) (*Bitmap, error) {
	if size < 0 || len(packed) != Rows(size) {
		return nil, errs.Newf(
			errs.CodeIndexOutOfRange,
			"bitmap of %d slots needs %d rows, got %d",
			size, Rows(size), len(packed),
		)
	}

	bm := &Bitmap{bytes: append([]byte(nil), packed...), size: size}
	for i := size; i < len(bm.bytes)*BitsPerRow; i++ {
		if bm.bytes[i/BitsPerRow]&mask(i) != 0 {
			return nil, errs.Newf(errs.CodeIndexOutOfRange, "padding bit %d is set", i)
		}
	}
	return bm, nil
}

// Rows returns the number of 8-bit rows needed for size slots.
func Rows(size int) int {
	return (size + BitsPerRow - 1) / BitsPerRow
}

func mask(i int) byte {
	return 1 << (i % BitsPerRow)
}

func (bm *Bitmap) check(i int) error {
	if i < 0 || i >= bm.size {
		return errs.Newf(errs.CodeIndexOutOfRange, "bit %d outside bitmap of %d slots", i, bm.size)
	}
	return nil
}

// Len returns the number of slots.
func (bm *Bitmap) Len() int { return bm.size }

// Get reports whether bit i is set.
func (bm *Bitmap) Get(i int) (bool, error) {
	if err := bm.check(i); err != nil {
		return false, err
	}
	return bm.bytes[i/BitsPerRow]&mask(i) != 0, nil
}

// Set marks bit i allocated.
func (bm *Bitmap) Set(i int) error {
	if err := bm.check(i); err != nil {
		return err
	}
	bm.bytes[i/BitsPerRow] |= mask(i)
	return nil
}

// Clear marks bit i free.
func (bm *Bitmap) Clear(i int) error {
	if err := bm.check(i); err != nil {
		return err
	}
	bm.bytes[i/BitsPerRow] &^= mask(i)
	return nil
}

// SetRange marks count bits starting at start allocated. The range is
// checked before any bit changes.
func (bm *Bitmap) SetRange(start, count int) error {
	if err := bm.checkRange(start, count); err != nil {
		return err
	}
	for i := start; i < start+count; i++ {
		bm.bytes[i/BitsPerRow] |= mask(i)
	}
	return nil
}

// ClearRange marks count bits starting at start free. The range is checked
// before any bit changes.
func (bm *Bitmap) ClearRange(start, count int) error {
	if err := bm.checkRange(start, count); err != nil {
		return err
	}
	for i := start; i < start+count; i++ {
		bm.bytes[i/BitsPerRow] &^= mask(i)
	}
	return nil
}

func (bm *Bitmap) checkRange(start, count int) error {
	if count < 0 || start < 0 || start+count > bm.size {
		return errs.Newf(
			errs.CodeIndexOutOfRange,
			"range [%d, %d) outside bitmap of %d slots",
			start, start+count, bm.size,
		)
	}
	return nil
}

// FirstClear returns the lowest clear bit.
func (bm *Bitmap) FirstClear() (int, bool) {
	for i := 0; i < bm.size; i++ {
		if bm.bytes[i/BitsPerRow]&mask(i) == 0 {
			return i, true
		}
	}
	return 0, false
}

// FindRun returns the start of the first run of count consecutive clear bits,
// scanning in increasing index order. The running count resets on every set
// bit, so a fragmented bitmap can fail even when enough bits are clear.
func (bm *Bitmap) FindRun(count int) (int, bool) {
	if count <= 0 {
		return 0, false
	}

	run := 0
	start := 0
	for i := 0; i < bm.size; i++ {
		if bm.bytes[i/BitsPerRow]&mask(i) != 0 {
			run = 0
			continue
		}
		if run == 0 {
			start = i
		}
		run++
		if run == count {
			return start, true
		}
	}
	return 0, false
}

// Count returns the number of set bits.
func (bm *Bitmap) Count() int {
	n := 0
	for _, b := range bm.bytes {
		n += bits.OnesCount8(b)
	}
	return n
}

// Bytes returns a copy of the packed representation, one byte per row.
func (bm *Bitmap) Bytes() []byte {
	return append([]byte(nil), bm.bytes...)
}
