package tree

import (
	"bytes"

	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/table"
)

// Create allocates an entry of kind with size blocks and links it under dir.
// File blocks are filled with FillByte.
func (t *Tree) Create(name table.Name, size uint64, kind table.Kind, dir table.Ino) (table.Ino, error) {
	if kind != table.KindFile && kind != table.KindDirectory {
		return 0, errs.Newf(errs.CodeInvalidInput, "cannot create entry of kind %s", kind)
	}
	if size == 0 {
		return 0, errs.New(errs.CodeInvalidInput, "size must be at least one block")
	}
	if _, _, err := t.dirBlock(dir); err != nil {
		return 0, err
	}

	first, err := t.alloc.AllocBlocks(size)
	if err != nil {
		return 0, err
	}
	ino, err := t.alloc.AllocInode()
	if err != nil {
		_ = t.alloc.FreeBlocks(first, size)
		return 0, err
	}

	if err := t.blocks.Reset(first, size); err != nil {
		return 0, err
	}
	if kind == table.KindFile {
		fill := bytes.Repeat([]byte{FillByte}, t.blockSize)
		for i := uint64(0); i < size; i++ {
			b, err := t.blocks.Get(first + table.BlockID(i))
			if err != nil {
				return 0, err
			}
			b.Content = append([]byte(nil), fill...)
		}
	}

	if err := t.inodes.Put(ino, table.Inode{
		Parent:  dir,
		Storage: first,
		Size:    size,
		Kind:    kind,
		Name:    name,
	}); err != nil {
		return 0, err
	}
	if err := t.link(ino, dir); err != nil {
		return 0, err
	}
	return ino, nil
}

// Delete removes a single entry. Directories must be empty.
func (t *Tree) Delete(ino table.Ino) error {
	if ino == table.RootIno {
		return errs.New(errs.CodeInvalidInput, "cannot delete the root directory")
	}
	in, err := t.live(ino)
	if err != nil {
		return err
	}
	if in.IsDir() {
		b, err := t.blocks.Get(in.Storage)
		if err != nil {
			return err
		}
		if len(b.Children) > 0 {
			return errs.Newf(errs.CodeConflict, "directory %q has %d entries", in.Name, len(b.Children))
		}
	}

	if err := t.unlink(ino); err != nil {
		return err
	}
	if owned := in.OwnedBlocks(); owned > 0 {
		if err := t.blocks.Reset(in.Storage, owned); err != nil {
			return err
		}
		if err := t.alloc.FreeBlocks(in.Storage, owned); err != nil {
			return err
		}
	}
	if err := t.alloc.FreeInode(ino); err != nil {
		return err
	}
	return t.inodes.Put(ino, table.Inode{})
}

// DeleteSubtree removes ino and, for directories, everything below it.
func (t *Tree) DeleteSubtree(ino table.Ino) error {
	if ino == table.RootIno {
		return errs.New(errs.CodeInvalidInput, "cannot delete the root directory")
	}
	in, err := t.live(ino)
	if err != nil {
		return err
	}
	if !in.IsDir() {
		return t.Delete(ino)
	}

	children, err := t.Children(ino)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := t.DeleteSubtree(child); err != nil {
			return err
		}
	}
	return t.Delete(ino)
}

// Copy duplicates a file's blocks into a fresh run and links the copy under dir.
func (t *Tree) Copy(src, dir table.Ino) (table.Ino, error) {
	in, err := t.file(src)
	if err != nil {
		return 0, err
	}
	if _, _, err := t.dirBlock(dir); err != nil {
		return 0, err
	}

	first, err := t.alloc.AllocBlocks(in.Size)
	if err != nil {
		return 0, err
	}
	ino, err := t.alloc.AllocInode()
	if err != nil {
		_ = t.alloc.FreeBlocks(first, in.Size)
		return 0, err
	}

	for i := uint64(0); i < in.Size; i++ {
		from, err := t.blocks.Get(in.Storage + table.BlockID(i))
		if err != nil {
			return 0, err
		}
		if err := t.blocks.Put(first+table.BlockID(i), table.Block{
			Content: append([]byte(nil), from.Content...),
		}); err != nil {
			return 0, err
		}
	}

	if err := t.inodes.Put(ino, table.Inode{
		Parent:  dir,
		Storage: first,
		Size:    in.Size,
		Kind:    table.KindFile,
		Name:    in.Name,
	}); err != nil {
		return 0, err
	}
	if err := t.link(ino, dir); err != nil {
		return 0, err
	}
	return ino, nil
}

// CopyShallow links a shortcut to a file's storage under dir. The shortcut
// owns no blocks.
func (t *Tree) CopyShallow(src, dir table.Ino) (table.Ino, error) {
	in, err := t.file(src)
	if err != nil {
		return 0, err
	}
	if _, _, err := t.dirBlock(dir); err != nil {
		return 0, err
	}

	ino, err := t.alloc.AllocInode()
	if err != nil {
		return 0, err
	}
	if err := t.inodes.Put(ino, table.Inode{
		Parent:  dir,
		Storage: in.Storage,
		Size:    1,
		Kind:    table.KindShortcut,
		Name:    in.Name,
	}); err != nil {
		return 0, err
	}
	if err := t.link(ino, dir); err != nil {
		return 0, err
	}
	return ino, nil
}

// Move relinks src under dir. Storage handles are unchanged.
func (t *Tree) Move(src, dir table.Ino) error {
	if src == table.RootIno {
		return errs.New(errs.CodeInvalidInput, "cannot move the root directory")
	}
	in, err := t.live(src)
	if err != nil {
		return err
	}
	if _, _, err := t.dirBlock(dir); err != nil {
		return err
	}
	if in.IsDir() && t.IsAncestor(src, dir) {
		return errs.Newf(errs.CodeInvalidInput, "cannot move directory %q into itself", in.Name)
	}

	if err := t.unlink(src); err != nil {
		return err
	}
	in.Parent = dir
	return t.link(src, dir)
}

// Rename overwrites the name of ino.
func (t *Tree) Rename(ino table.Ino, name table.Name) error {
	in, err := t.live(ino)
	if err != nil {
		return err
	}
	in.Name = name
	return nil
}

func (t *Tree) file(ino table.Ino) (*table.Inode, error) {
	in, err := t.live(ino)
	if err != nil {
		return nil, err
	}
	if in.Kind != table.KindFile {
		return nil, errs.Newf(errs.CodeTypeMismatch, "%q is a %s, not a file", in.Name, in.Kind)
	}
	return in, nil
}

// link appends ino to its parent directory and adds its owned blocks along
// the parent chain.
func (t *Tree) link(ino, dir table.Ino) error {
	in, err := t.live(ino)
	if err != nil {
		return err
	}
	_, b, err := t.dirBlock(dir)
	if err != nil {
		return err
	}
	b.Children = append(b.Children, ino)
	return t.propagate(dir, in.OwnedBlocks(), true)
}

// unlink removes ino from its parent's child list and subtracts its owned
// blocks along the parent chain.
func (t *Tree) unlink(ino table.Ino) error {
	in, err := t.live(ino)
	if err != nil {
		return err
	}
	_, b, err := t.dirBlock(in.Parent)
	if err != nil {
		return err
	}
	i := b.IndexOf(ino)
	if i < 0 {
		return errs.Newf(errs.CodeInternal, "inode %d is not listed in its parent %d", ino, in.Parent)
	}
	b.RemoveAt(i)
	return t.propagate(in.Parent, in.OwnedBlocks(), false)
}

// propagate adjusts the size of dir and every ancestor up to the root.
func (t *Tree) propagate(dir table.Ino, n uint64, add bool) error {
	if n == 0 {
		return nil
	}
	cur := dir
	for steps := 0; ; steps++ {
		if steps > t.inodes.Len() {
			return errs.Newf(errs.CodeInternal, "parent chain of inode %d does not reach the root", dir)
		}
		in, err := t.live(cur)
		if err != nil {
			return err
		}
		if add {
			in.Size += n
		} else {
			if in.Size < n {
				return errs.Newf(errs.CodeInternal, "size of %q would drop below zero", in.Name)
			}
			in.Size -= n
		}
		if cur == table.RootIno {
			return nil
		}
		cur = in.Parent
	}
}
