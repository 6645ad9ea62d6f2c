// Package alloc hands out inode and block handles from a pair of bitmaps.
package alloc

import (
	"github.com/jmgilman/go/inodefs/internal/bitmap"
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/table"
)

// Allocator tracks which inode and block slots are in use.
type Allocator struct {
	inodes *bitmap.Bitmap
	blocks *bitmap.Bitmap
}

// New creates an allocator with every slot free.
func New(inodeCapacity, blockCapacity int) *Allocator {
	return &Allocator{
		inodes: bitmap.New(inodeCapacity),
		blocks: bitmap.New(blockCapacity),
	}
}

// FromBitmaps creates an allocator over existing bitmaps.
func FromBitmaps(inodes, blocks *bitmap.Bitmap) *Allocator {
	return &Allocator{inodes: inodes, blocks: blocks}
}

// InodeBitmap returns the inode bitmap.
func (a *Allocator) InodeBitmap() *bitmap.Bitmap { return a.inodes }

// BlockBitmap returns the block bitmap.
func (a *Allocator) BlockBitmap() *bitmap.Bitmap { return a.blocks }

// AllocInode marks and returns the lowest free inode.
func (a *Allocator) AllocInode() (table.Ino, error) {
	i, ok := a.inodes.FirstClear()
	if !ok {
		return 0, errs.Newf(errs.CodeAllocationExhausted, "no free inode among %d", a.inodes.Len())
	}
	if err := a.inodes.Set(i); err != nil {
		return 0, err
	}
	return table.Ino(i), nil
}

// AllocBlocks marks and returns the first run of count contiguous free
// blocks. It fails when no such run exists, even if enough blocks are free
// in total.
func (a *Allocator) AllocBlocks(count uint64) (table.BlockID, error) {
	if count == 0 {
		return 0, errs.New(errs.CodeInvalidInput, "cannot allocate zero blocks")
	}
	if count > uint64(a.blocks.Len()) {
		return 0, errs.Newf(
			errs.CodeAllocationExhausted,
			"%d blocks requested from a pool of %d",
			count, a.blocks.Len(),
		)
	}

	start, ok := a.blocks.FindRun(int(count))
	if !ok {
		return 0, errs.Newf(
			errs.CodeAllocationExhausted,
			"no run of %d contiguous free blocks (%d free in total)",
			count, a.blocks.Len()-a.blocks.Count(),
		)
	}
	if err := a.blocks.SetRange(start, int(count)); err != nil {
		return 0, err
	}
	return table.BlockID(start), nil
}

// ReserveInode marks ino allocated.
func (a *Allocator) ReserveInode(ino table.Ino) error {
	return a.inodes.Set(int(ino))
}

// ReserveBlocks marks count blocks starting at first allocated.
func (a *Allocator) ReserveBlocks(first table.BlockID, count uint64) error {
	return a.blocks.SetRange(int(first), int(count))
}

// FreeInode marks ino free. Ownership is the caller's responsibility.
func (a *Allocator) FreeInode(ino table.Ino) error {
	return a.inodes.Clear(int(ino))
}

// FreeBlocks marks count blocks starting at first free. Ownership is the
// caller's responsibility.
func (a *Allocator) FreeBlocks(first table.BlockID, count uint64) error {
	if count > uint64(a.blocks.Len()) {
		return errs.Newf(errs.CodeIndexOutOfRange, "cannot free %d blocks from a pool of %d", count, a.blocks.Len())
	}
	return a.blocks.ClearRange(int(first), int(count))
}

// InodeInUse reports whether ino is allocated.
func (a *Allocator) InodeInUse(ino table.Ino) bool {
	set, err := a.inodes.Get(int(ino))
	return err == nil && set
}

// BlockInUse reports whether id is allocated.
func (a *Allocator) BlockInUse(id table.BlockID) bool {
	set, err := a.blocks.Get(int(id))
	return err == nil && set
}

// FreeInodes returns the number of free inode slots.
func (a *Allocator) FreeInodes() int {
	return a.inodes.Len() - a.inodes.Count()
}

// FreeBlocksCount returns the number of free block slots.
func (a *Allocator) FreeBlocksCount() int {
	return a.blocks.Len() - a.blocks.Count()
}
