package tree

import (
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/table"
)

// WalkFunc is called for every entry visited by Walk. depth is 0 for the
// starting entry.
type WalkFunc func(ino table.Ino, in table.Inode, depth int) error

// Walk visits ino and its descendants depth-first in pre-order, following
// child lists in insertion order. The first error returned by fn stops the
// walk.
func (t *Tree) Walk(ino table.Ino, fn WalkFunc) error {
	return t.walk(ino, fn, 0)
}

func (t *Tree) walk(ino table.Ino, fn WalkFunc, depth int) error {
	if depth > t.inodes.Len() {
		return errs.Newf(errs.CodeInternal, "tree below inode %d is cyclic", ino)
	}
	in, err := t.live(ino)
	if err != nil {
		return err
	}
	if err := fn(ino, *in, depth); err != nil {
		return err
	}
	if !in.IsDir() {
		return nil
	}

	b, err := t.blocks.Get(in.Storage)
	if err != nil {
		return err
	}
	for _, child := range b.Children {
		if err := t.walk(child, fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Check verifies the structural invariants of the tree and returns the first
// violation found.
func (t *Tree) Check() error {
	root, err := t.live(table.RootIno)
	if err != nil {
		return errs.Wrap(err, errs.CodeInternal, "root inode is missing")
	}
	if root.Parent != table.RootIno || !root.IsDir() {
		return errs.New(errs.CodeInternal, "root inode must be a directory that is its own parent")
	}

	c := &checker{
		tree:   t,
		owner:  make(map[table.BlockID]table.Ino),
		inodes: make(map[table.Ino]bool),
	}
	if _, err := c.visit(table.RootIno, 0); err != nil {
		return err
	}

	if used := t.alloc.InodeBitmap().Count(); used != len(c.inodes) {
		return errs.Newf(errs.CodeInternal, "%d inodes allocated but %d reachable from the root", used, len(c.inodes))
	}
	if used := t.alloc.BlockBitmap().Count(); used != len(c.owner) {
		return errs.Newf(errs.CodeInternal, "%d blocks allocated but %d owned by entries", used, len(c.owner))
	}
	return nil
}

type checker struct {
	tree   *Tree
	owner  map[table.BlockID]table.Ino
	inodes map[table.Ino]bool
}

// visit checks ino and returns the number of blocks owned by its subtree.
func (c *checker) visit(ino table.Ino, depth int) (uint64, error) {
	t := c.tree
	if c.inodes[ino] {
		return 0, errs.Newf(errs.CodeInternal, "inode %d is reachable twice", ino)
	}
	c.inodes[ino] = true
	if depth > t.inodes.Len() {
		return 0, errs.Newf(errs.CodeInternal, "tree below inode %d is too deep", ino)
	}

	in, err := t.live(ino)
	if err != nil {
		return 0, errs.Wrapf(err, errs.CodeInternal, "inode %d is linked but not allocated", ino)
	}

	switch in.Kind {
	case table.KindShortcut:
		return 0, nil
	case table.KindFile:
		if err := c.claim(ino, in.Storage, in.Size); err != nil {
			return 0, err
		}
		return in.Size, c.filled(in, in.Storage, in.Size)
	}

	b, err := t.blocks.Get(in.Storage)
	if err != nil {
		return 0, errs.Wrapf(err, errs.CodeInternal, "directory %q has invalid storage", in.Name)
	}
	var below uint64
	for _, child := range b.Children {
		cin, err := t.inodes.Get(child)
		if err != nil {
			return 0, errs.Wrapf(err, errs.CodeInternal, "directory %q lists invalid child", in.Name)
		}
		if cin.Parent != ino {
			return 0, errs.Newf(errs.CodeInternal, "%q is listed in %q but its parent is %d", cin.Name, in.Name, cin.Parent)
		}
		n, err := c.visit(child, depth+1)
		if err != nil {
			return 0, err
		}
		below += n
	}

	if in.Size <= below {
		return 0, errs.Newf(errs.CodeInternal, "directory %q has size %d but its entries own %d blocks", in.Name, in.Size, below)
	}
	if err := c.claim(ino, in.Storage, in.Size-below); err != nil {
		return 0, err
	}
	return in.Size, nil
}

func (c *checker) claim(ino table.Ino, first table.BlockID, count uint64) error {
	for i := uint64(0); i < count; i++ {
		id := first + table.BlockID(i)
		if !c.tree.alloc.BlockInUse(id) {
			return errs.Newf(errs.CodeInternal, "block %d of inode %d is not allocated", id, ino)
		}
		if other, ok := c.owner[id]; ok {
			return errs.Newf(errs.CodeInternal, "block %d is owned by inodes %d and %d", id, other, ino)
		}
		c.owner[id] = ino
	}
	return nil
}

// filled checks that each of the count blocks at first holds exactly one
// block of content.
func (c *checker) filled(in table.Inode, first table.BlockID, count uint64) error {
	for i := uint64(0); i < count; i++ {
		b, err := c.tree.blocks.Get(first + table.BlockID(i))
		if err != nil {
			return errs.Wrapf(err, errs.CodeInternal, "file %q has invalid storage", in.Name)
		}
		if len(b.Content) != c.tree.blockSize {
			return errs.Newf(
				errs.CodeInternal,
				"block %d of %q holds %d bytes but the block size is %d",
				first+table.BlockID(i), in.Name, len(b.Content), c.tree.blockSize,
			)
		}
	}
	return nil
}
