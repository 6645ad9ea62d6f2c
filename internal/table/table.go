package table

import (
	"github.com/jmgilman/go/inodefs/internal/errs"
)

// Inodes is a fixed-capacity inode table addressed by handle.
type Inodes struct {
	records []Inode
}

// NewInodes creates a table with capacity zeroed slots.
func NewInodes(capacity int) *Inodes {
	return &Inodes{records: make([]Inode, capacity)}
}

// Len returns the table capacity.
func (t *Inodes) Len() int { return len(t.records) }

// Get returns the record at ino. The pointer stays valid for the lifetime
// of the table and may be used to update the record in place.
func (t *Inodes) Get(ino Ino) (*Inode, error) {
	if uint64(ino) >= uint64(len(t.records)) {
		return nil, errs.Newf(errs.CodeIndexOutOfRange, "inode %d outside table of %d", ino, len(t.records))
	}
	return &t.records[ino], nil
}

// Put overwrites the record at ino.
func (t *Inodes) Put(ino Ino, in Inode) error {
	rec, err := t.Get(ino)
	if err != nil {
		return err
	}
	*rec = in
	return nil
}

// Blocks is a fixed-capacity block pool addressed by handle.
type Blocks struct {
	records []Block
}

// NewBlocks creates a pool with capacity empty blocks.
func NewBlocks(capacity int) *Blocks {
	return &Blocks{records: make([]Block, capacity)}
}

// Len returns the pool capacity.
func (p *Blocks) Len() int { return len(p.records) }

// Get returns the block at id for in-place use.
func (p *Blocks) Get(id BlockID) (*Block, error) {
	if uint64(id) >= uint64(len(p.records)) {
		return nil, errs.Newf(errs.CodeIndexOutOfRange, "block %d outside pool of %d", id, len(p.records))
	}
	return &p.records[id], nil
}

// Put overwrites the block at id.
func (p *Blocks) Put(id BlockID, b Block) error {
	rec, err := p.Get(id)
	if err != nil {
		return err
	}
	*rec = b
	return nil
}

// Reset clears count blocks starting at id.
func (p *Blocks) Reset(id BlockID, count uint64) error {
	if count == 0 {
		return nil
	}
	if uint64(id)+count > uint64(len(p.records)) {
		return errs.Newf(
			errs.CodeIndexOutOfRange,
			"blocks [%d, %d) outside pool of %d",
			id, uint64(id)+count, len(p.records),
		)
	}
	for i := uint64(0); i < count; i++ {
		p.records[uint64(id)+i] = Block{}
	}
	return nil
}
