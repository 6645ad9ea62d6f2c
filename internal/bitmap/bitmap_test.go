package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/inodefs/internal/errs"
)

func TestBitmap_SetGetClear(t *testing.T) {
	bm := New(20)
	assert.Equal(t, 20, bm.Len())
	assert.Equal(t, 0, bm.Count())

	require.NoError(t, bm.Set(0))
	require.NoError(t, bm.Set(9))
	require.NoError(t, bm.Set(19))

	for _, i := range []int{0, 9, 19} {
		set, err := bm.Get(i)
		require.NoError(t, err)
		assert.True(t, set, "bit %d", i)
	}
	assert.Equal(t, 3, bm.Count())

	require.NoError(t, bm.Clear(9))
	set, err := bm.Get(9)
	require.NoError(t, err)
	assert.False(t, set)
	assert.Equal(t, 2, bm.Count())
}

func TestBitmap_OutOfRange(t *testing.T) {
	bm := New(10)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Set negative", func() error { return bm.Set(-1) }},
		{"Set past end", func() error { return bm.Set(10) }},
		{"Clear past end", func() error { return bm.Clear(16) }},
		{"Get past end", func() error { _, err := bm.Get(10); return err }},
		{"SetRange overflow", func() error { return bm.SetRange(8, 3) }},
		{"ClearRange overflow", func() error { return bm.ClearRange(9, 2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.CodeIndexOutOfRange))
		})
	}

	// A failed range update leaves the bitmap untouched.
	assert.Equal(t, 0, bm.Count())
}

func TestBitmap_FirstClear(t *testing.T) {
	bm := New(3)
	for want := 0; want < 3; want++ {
		i, ok := bm.FirstClear()
		require.True(t, ok)
		assert.Equal(t, want, i)
		require.NoError(t, bm.Set(i))
	}

	_, ok := bm.FirstClear()
	assert.False(t, ok)
}

func TestBitmap_FindRun(t *testing.T) {
	bm := New(16)
	// Layout: 0 set, 1-2 clear, 3 set, 4-15 clear.
	require.NoError(t, bm.Set(0))
	require.NoError(t, bm.Set(3))

	start, ok := bm.FindRun(2)
	require.True(t, ok)
	assert.Equal(t, 1, start)

	start, ok = bm.FindRun(3)
	require.True(t, ok)
	assert.Equal(t, 4, start)

	start, ok = bm.FindRun(12)
	require.True(t, ok)
	assert.Equal(t, 4, start)

	_, ok = bm.FindRun(13)
	assert.False(t, ok)

	_, ok = bm.FindRun(0)
	assert.False(t, ok)
}

func TestBitmap_FindRunFragmented(t *testing.T) {
	bm := New(8)
	// Every other bit set: four free slots, no run of two.
	for i := 0; i < 8; i += 2 {
		require.NoError(t, bm.Set(i))
	}
	assert.Equal(t, 4, bm.Len()-bm.Count())

	_, ok := bm.FindRun(2)
	assert.False(t, ok)

	_, ok = bm.FindRun(1)
	assert.True(t, ok)
}

func TestBitmap_Bytes(t *testing.T) {
	bm := New(10)
	require.NoError(t, bm.Set(0))
	require.NoError(t, bm.Set(7))
	require.NoError(t, bm.Set(8))

	packed := bm.Bytes()
	assert.Equal(t, []byte{0b1000_0001, 0b0000_0001}, packed)

	// Bytes returns a copy.
	packed[0] = 0
	set, err := bm.Get(0)
	require.NoError(t, err)
	assert.True(t, set)

	clone, err := FromBytes(10, bm.Bytes())
	require.NoError(t, err)
	assert.Equal(t, bm.Len(), clone.Len())
	assert.Equal(t, bm.Bytes(), clone.Bytes())
}

func TestFromBytes_Invalid(t *testing.T) {
	_, err := FromBytes(10, []byte{0})
	assert.True(t, errs.Is(err, errs.CodeIndexOutOfRange))

	// Bit 10 is padding for a 10 slot bitmap.
	_, err = FromBytes(10, []byte{0, 0b0000_0100})
	assert.True(t, errs.Is(err, errs.CodeIndexOutOfRange))
}

func TestRows(t *testing.T) {
	assert.Equal(t, 0, Rows(0))
	assert.Equal(t, 1, Rows(1))
	assert.Equal(t, 1, Rows(8))
	assert.Equal(t, 2, Rows(9))
	assert.Equal(t, 128, Rows(1024))
}
