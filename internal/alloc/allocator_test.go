package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/table"
)

func TestAllocInode_LowestFirst(t *testing.T) {
	a := New(3, 3)

	for want := table.Ino(0); want < 3; want++ {
		ino, err := a.AllocInode()
		require.NoError(t, err)
		assert.Equal(t, want, ino)
		assert.True(t, a.InodeInUse(ino))
	}

	_, err := a.AllocInode()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeAllocationExhausted))

	require.NoError(t, a.FreeInode(1))
	ino, err := a.AllocInode()
	require.NoError(t, err)
	assert.Equal(t, table.Ino(1), ino)
}

func TestAllocBlocks_Contiguous(t *testing.T) {
	a := New(8, 8)

	first, err := a.AllocBlocks(3)
	require.NoError(t, err)
	assert.Equal(t, table.BlockID(0), first)

	second, err := a.AllocBlocks(2)
	require.NoError(t, err)
	assert.Equal(t, table.BlockID(3), second)
	assert.Equal(t, 3, a.FreeBlocksCount())

	require.NoError(t, a.FreeBlocks(first, 3))
	assert.False(t, a.BlockInUse(0))
	assert.True(t, a.BlockInUse(3))

	// First fit reuses the hole at the start.
	third, err := a.AllocBlocks(2)
	require.NoError(t, err)
	assert.Equal(t, table.BlockID(0), third)
}

func TestAllocBlocks_FragmentationStarves(t *testing.T) {
	a := New(8, 8)
	// Occupy every other block.
	for i := table.BlockID(0); i < 8; i += 2 {
		require.NoError(t, a.ReserveBlocks(i, 1))
	}
	require.Equal(t, 4, a.FreeBlocksCount())

	_, err := a.AllocBlocks(2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeAllocationExhausted))

	// The failed request leaves the bitmap untouched.
	assert.Equal(t, 4, a.FreeBlocksCount())

	id, err := a.AllocBlocks(1)
	require.NoError(t, err)
	assert.Equal(t, table.BlockID(1), id)
}

func TestAllocBlocks_InvalidCounts(t *testing.T) {
	a := New(4, 4)

	_, err := a.AllocBlocks(0)
	assert.True(t, errs.Is(err, errs.CodeInvalidInput))

	_, err = a.AllocBlocks(5)
	assert.True(t, errs.Is(err, errs.CodeAllocationExhausted))
}

func TestFree_OutOfRange(t *testing.T) {
	a := New(4, 4)

	assert.True(t, errs.Is(a.FreeInode(4), errs.CodeIndexOutOfRange))
	assert.True(t, errs.Is(a.FreeBlocks(3, 2), errs.CodeIndexOutOfRange))
	assert.True(t, errs.Is(a.FreeBlocks(0, 1<<40), errs.CodeIndexOutOfRange))
	assert.False(t, a.InodeInUse(10))
	assert.False(t, a.BlockInUse(10))
}

func TestAllocator_ExclusiveRuns(t *testing.T) {
	a := New(16, 64)
	type run struct {
		first table.BlockID
		count uint64
	}
	var live []run

	sizes := []uint64{3, 1, 5, 2, 7, 4}
	for _, n := range sizes {
		first, err := a.AllocBlocks(n)
		require.NoError(t, err)
		live = append(live, run{first, n})
	}
	// Free two runs and allocate again to exercise reuse.
	require.NoError(t, a.FreeBlocks(live[1].first, live[1].count))
	require.NoError(t, a.FreeBlocks(live[3].first, live[3].count))
	live = append(live[:3], live[4:]...)
	live = append(live[:1], live[2:]...)
	for _, n := range []uint64{2, 1} {
		first, err := a.AllocBlocks(n)
		require.NoError(t, err)
		live = append(live, run{first, n})
	}

	owned := make(map[table.BlockID]bool)
	var total uint64
	for _, r := range live {
		for i := uint64(0); i < r.count; i++ {
			id := r.first + table.BlockID(i)
			assert.False(t, owned[id], "block %d owned twice", id)
			owned[id] = true
		}
		total += r.count
	}

	for id := table.BlockID(0); id < 64; id++ {
		assert.Equal(t, owned[id], a.BlockInUse(id), "block %d", id)
	}
	assert.Equal(t, int(total), a.BlockBitmap().Count())
}
