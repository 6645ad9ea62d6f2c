// Package tree implements the directory tree on top of the inode table,
// block pool and allocator.
//
// Every operation runs to completion or stops at the first error. There is
// no rollback of steps already committed by a failed operation beyond
// releasing storage that was allocated and never linked.
package tree

import (
	"bytes"

	"github.com/jmgilman/go/inodefs/internal/alloc"
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/pathutil"
	"github.com/jmgilman/go/inodefs/internal/table"
)

// DefaultBlockSize is the number of content bytes in a block.
const DefaultBlockSize = 1024

// FillByte initializes the content of new files.
const FillByte = '0'

// RootName is the name given to the root directory on format.
const RootName table.Name = "root"

// Tree owns the storage of one filesystem.
type Tree struct {
	alloc     *alloc.Allocator
	inodes    *table.Inodes
	blocks    *table.Blocks
	blockSize int
}

// Format creates a tree with the given capacities. The root directory takes
// inode 0 and block 0.
func Format(inodeCapacity, blockCapacity, blockSize int) (*Tree, error) {
	if inodeCapacity < 1 || blockCapacity < 1 {
		return nil, errs.Newf(
			errs.CodeInvalidInput,
			"capacities must be positive (inodes %d, blocks %d)",
			inodeCapacity, blockCapacity,
		)
	}

	t := New(
		alloc.New(inodeCapacity, blockCapacity),
		table.NewInodes(inodeCapacity),
		table.NewBlocks(blockCapacity),
		blockSize,
	)
	if err := t.alloc.ReserveInode(table.RootIno); err != nil {
		return nil, err
	}
	if err := t.alloc.ReserveBlocks(table.RootBlock, 1); err != nil {
		return nil, err
	}
	if err := t.inodes.Put(table.RootIno, table.Inode{
		Parent:  table.RootIno,
		Storage: table.RootBlock,
		Size:    1,
		Kind:    table.KindDirectory,
		Name:    RootName,
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// New wraps existing storage, typically decoded from a snapshot.
// A non-positive blockSize selects DefaultBlockSize.
func New(a *alloc.Allocator, inodes *table.Inodes, blocks *table.Blocks, blockSize int) *Tree {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Tree{alloc: a, inodes: inodes, blocks: blocks, blockSize: blockSize}
}

// Allocator returns the allocator backing the tree.
func (t *Tree) Allocator() *alloc.Allocator { return t.alloc }

// Inodes returns the inode table.
func (t *Tree) Inodes() *table.Inodes { return t.inodes }

// Blocks returns the block pool.
func (t *Tree) Blocks() *table.Blocks { return t.blocks }

// BlockSize returns the number of content bytes per block.
func (t *Tree) BlockSize() int { return t.blockSize }

// live returns the record of an allocated inode.
func (t *Tree) live(ino table.Ino) (*table.Inode, error) {
	in, err := t.inodes.Get(ino)
	if err != nil {
		return nil, err
	}
	if !t.alloc.InodeInUse(ino) || in.Kind == table.KindNone {
		return nil, errs.Newf(errs.CodeNotFound, "inode %d is not in use", ino)
	}
	return in, nil
}

// dirBlock returns the child list block of a directory.
func (t *Tree) dirBlock(dir table.Ino) (*table.Inode, *table.Block, error) {
	in, err := t.live(dir)
	if err != nil {
		return nil, nil, err
	}
	if !in.IsDir() {
		return nil, nil, errs.Newf(errs.CodeTypeMismatch, "%q is a %s, not a directory", in.Name, in.Kind)
	}
	b, err := t.blocks.Get(in.Storage)
	if err != nil {
		return nil, nil, err
	}
	return in, b, nil
}

// Inode returns a copy of the record of an allocated inode.
func (t *Tree) Inode(ino table.Ino) (table.Inode, error) {
	in, err := t.live(ino)
	if err != nil {
		return table.Inode{}, err
	}
	return *in, nil
}

// Children returns a copy of a directory's child list in insertion order.
func (t *Tree) Children(dir table.Ino) ([]table.Ino, error) {
	_, b, err := t.dirBlock(dir)
	if err != nil {
		return nil, err
	}
	return append([]table.Ino(nil), b.Children...), nil
}

// Content returns a copy of the content of count blocks starting at first.
func (t *Tree) Content(first table.BlockID, count uint64) ([]byte, error) {
	var buf bytes.Buffer
	for i := uint64(0); i < count; i++ {
		b, err := t.blocks.Get(first + table.BlockID(i))
		if err != nil {
			return nil, err
		}
		buf.Write(b.Content)
	}
	return buf.Bytes(), nil
}

// Lookup returns the first child of dir named name.
func (t *Tree) Lookup(dir table.Ino, name string) (table.Ino, error) {
	d, b, err := t.dirBlock(dir)
	if err != nil {
		return 0, err
	}
	for _, child := range b.Children {
		in, err := t.inodes.Get(child)
		if err != nil {
			return 0, err
		}
		if string(in.Name) == name {
			return child, nil
		}
	}
	return 0, errs.Newf(errs.CodeNotFound, "%q not found in %q", name, d.Name)
}

// Resolve walks a path expression from base. Each component is looked up in
// the directory produced by the previous one; ".." moves to the parent and
// "." stays put. An empty expression resolves to base.
func (t *Tree) Resolve(expr string, base table.Ino) (table.Ino, error) {
	cur := base
	if _, err := t.live(cur); err != nil {
		return 0, err
	}

	for _, component := range pathutil.Split(expr) {
		in, err := t.live(cur)
		if err != nil {
			return 0, err
		}
		if !in.IsDir() {
			return 0, errs.Newf(errs.CodeTypeMismatch, "resolving %q: %q is not a directory", expr, in.Name)
		}

		switch component {
		case pathutil.Current:
		case pathutil.Parent:
			cur = in.Parent
		default:
			next, err := t.Lookup(cur, component)
			if err != nil {
				return 0, err
			}
			cur = next
		}
	}
	return cur, nil
}

// Path returns the absolute display path of ino, "/" for the root.
func (t *Tree) Path(ino table.Ino) (string, error) {
	var names []string
	cur := ino
	for steps := 0; cur != table.RootIno; steps++ {
		if steps > t.inodes.Len() {
			return "", errs.Newf(errs.CodeInternal, "parent chain of inode %d does not reach the root", ino)
		}
		in, err := t.live(cur)
		if err != nil {
			return "", err
		}
		names = append(names, string(in.Name))
		cur = in.Parent
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return pathutil.Join(names...), nil
}

// IsAncestor reports whether dir appears on the parent chain of ino,
// ino itself included.
func (t *Tree) IsAncestor(dir, ino table.Ino) bool {
	cur := ino
	for steps := 0; steps <= t.inodes.Len(); steps++ {
		if cur == dir {
			return true
		}
		if cur == table.RootIno {
			return false
		}
		in, err := t.inodes.Get(cur)
		if err != nil {
			return false
		}
		cur = in.Parent
	}
	return false
}
