package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/table"
)

func newTree(t *testing.T) *Tree {
	t.Helper()
	tr, err := Format(16, 32, 4)
	require.NoError(t, err)
	return tr
}

func size(t *testing.T, tr *Tree, ino table.Ino) uint64 {
	t.Helper()
	in, err := tr.Inode(ino)
	require.NoError(t, err)
	return in.Size
}

func TestFormat(t *testing.T) {
	tr := newTree(t)

	root, err := tr.Inode(table.RootIno)
	require.NoError(t, err)
	assert.Equal(t, table.Inode{
		Parent:  table.RootIno,
		Storage: table.RootBlock,
		Size:    1,
		Kind:    table.KindDirectory,
		Name:    RootName,
	}, root)
	assert.True(t, tr.Allocator().InodeInUse(table.RootIno))
	assert.True(t, tr.Allocator().BlockInUse(table.RootBlock))
	require.NoError(t, tr.Check())

	_, err = Format(0, 1, 4)
	assert.True(t, errs.Is(err, errs.CodeInvalidInput))
}

func TestCreate(t *testing.T) {
	tr := newTree(t)

	dir, err := tr.Create("a", 2, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	file, err := tr.Create("f", 3, table.KindFile, dir)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), size(t, tr, dir))
	assert.Equal(t, uint64(6), size(t, tr, table.RootIno))

	in, err := tr.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, table.BlockID(3), in.Storage)
	content, err := tr.Content(in.Storage, in.Size)
	require.NoError(t, err)
	assert.Equal(t, "000000000000", string(content))

	children, err := tr.Children(table.RootIno)
	require.NoError(t, err)
	assert.Equal(t, []table.Ino{dir}, children)
	require.NoError(t, tr.Check())
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name string
		size uint64
		kind table.Kind
		dir  table.Ino
		code platformerrors.ErrorCode
	}{
		{name: "zero size", size: 0, kind: table.KindFile, dir: table.RootIno, code: errs.CodeInvalidInput},
		{name: "shortcut kind", size: 1, kind: table.KindShortcut, dir: table.RootIno, code: errs.CodeInvalidInput},
		{name: "missing parent", size: 1, kind: table.KindFile, dir: 9, code: errs.CodeNotFound},
		{name: "too large", size: 40, kind: table.KindFile, dir: table.RootIno, code: errs.CodeAllocationExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTree(t)
			_, err := tr.Create("x", tt.size, tt.kind, tt.dir)
			require.Error(t, err)
			assert.Equal(t, tt.code, platformerrors.GetCode(err))
			require.NoError(t, tr.Check())
		})
	}
}

func TestCreate_ParentMustBeDirectory(t *testing.T) {
	tr := newTree(t)
	file, err := tr.Create("f", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)

	_, err = tr.Create("g", 1, table.KindFile, file)
	assert.True(t, errs.Is(err, errs.CodeTypeMismatch))
}

func TestCreate_InodeExhaustionReleasesBlocks(t *testing.T) {
	tr, err := Format(2, 8, 4)
	require.NoError(t, err)

	_, err = tr.Create("a", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)
	free := tr.Allocator().FreeBlocksCount()

	_, err = tr.Create("b", 2, table.KindFile, table.RootIno)
	assert.True(t, errs.Is(err, errs.CodeAllocationExhausted))
	assert.Equal(t, free, tr.Allocator().FreeBlocksCount())
	require.NoError(t, tr.Check())
}

func TestResolve(t *testing.T) {
	tr := newTree(t)
	a, err := tr.Create("a", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	b, err := tr.Create("b", 1, table.KindDirectory, a)
	require.NoError(t, err)
	f, err := tr.Create("f", 1, table.KindFile, b)
	require.NoError(t, err)

	tests := []struct {
		expr string
		base table.Ino
		want table.Ino
	}{
		{expr: "", base: b, want: b},
		{expr: "a", base: table.RootIno, want: a},
		{expr: "a/b/f", base: table.RootIno, want: f},
		{expr: "/a//b/", base: table.RootIno, want: b},
		{expr: "..", base: b, want: a},
		{expr: "../..", base: b, want: table.RootIno},
		{expr: "..", base: table.RootIno, want: table.RootIno},
		{expr: "./b/./f", base: a, want: f},
		{expr: "b/../b/f", base: a, want: f},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := tr.Resolve(tt.expr, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = tr.Resolve("a/missing", table.RootIno)
	assert.True(t, errs.Is(err, errs.CodeNotFound))

	_, err = tr.Resolve("a/b/f/g", table.RootIno)
	assert.True(t, errs.Is(err, errs.CodeTypeMismatch))
}

func TestResolve_FirstMatchWins(t *testing.T) {
	tr := newTree(t)
	first, err := tr.Create("dup", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)
	_, err = tr.Create("dup", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)

	got, err := tr.Resolve("dup", table.RootIno)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestPath(t *testing.T) {
	tr := newTree(t)
	a, err := tr.Create("a", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	f, err := tr.Create("f", 1, table.KindFile, a)
	require.NoError(t, err)

	p, err := tr.Path(table.RootIno)
	require.NoError(t, err)
	assert.Equal(t, "/", p)

	p, err = tr.Path(f)
	require.NoError(t, err)
	assert.Equal(t, "/a/f", p)
}

func TestDelete(t *testing.T) {
	tr := newTree(t)
	dir, err := tr.Create("a", 2, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	x, err := tr.Create("x", 1, table.KindFile, dir)
	require.NoError(t, err)
	y, err := tr.Create("y", 2, table.KindFile, dir)
	require.NoError(t, err)
	z, err := tr.Create("z", 1, table.KindFile, dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), size(t, tr, table.RootIno))

	err = tr.Delete(dir)
	assert.True(t, errs.Is(err, errs.CodeConflict))

	require.NoError(t, tr.Delete(y))
	children, err := tr.Children(dir)
	require.NoError(t, err)
	assert.Equal(t, []table.Ino{x, z}, children)
	assert.Equal(t, uint64(4), size(t, tr, dir))
	assert.Equal(t, uint64(5), size(t, tr, table.RootIno))
	assert.False(t, tr.Allocator().InodeInUse(y))

	_, err = tr.Inode(y)
	assert.True(t, errs.Is(err, errs.CodeNotFound))
	assert.True(t, errs.Is(tr.Delete(y), errs.CodeNotFound))
	assert.True(t, errs.Is(tr.Delete(table.RootIno), errs.CodeInvalidInput))
	require.NoError(t, tr.Check())
}

func TestDelete_SameNameSiblings(t *testing.T) {
	tr := newTree(t)
	first, err := tr.Create("dup", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)
	second, err := tr.Create("dup", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)

	require.NoError(t, tr.Delete(second))
	children, err := tr.Children(table.RootIno)
	require.NoError(t, err)
	assert.Equal(t, []table.Ino{first}, children)
	require.NoError(t, tr.Check())
}

func TestDeleteSubtree(t *testing.T) {
	tr := newTree(t)
	a, err := tr.Create("a", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	b, err := tr.Create("b", 2, table.KindDirectory, a)
	require.NoError(t, err)
	_, err = tr.Create("f", 3, table.KindFile, b)
	require.NoError(t, err)
	_, err = tr.Create("g", 1, table.KindFile, a)
	require.NoError(t, err)

	require.NoError(t, tr.DeleteSubtree(a))
	assert.Equal(t, uint64(1), size(t, tr, table.RootIno))
	assert.Equal(t, 15, tr.Allocator().FreeInodes())
	assert.Equal(t, 31, tr.Allocator().FreeBlocksCount())
	require.NoError(t, tr.Check())

	assert.True(t, errs.Is(tr.DeleteSubtree(table.RootIno), errs.CodeInvalidInput))
}

func TestCopy(t *testing.T) {
	tr := newTree(t)
	src, err := tr.Create("f", 2, table.KindFile, table.RootIno)
	require.NoError(t, err)
	srcIn, err := tr.Inode(src)
	require.NoError(t, err)
	blk, err := tr.Blocks().Get(srcIn.Storage)
	require.NoError(t, err)
	blk.Content = []byte("abcd")

	dir, err := tr.Create("d", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	dst, err := tr.Copy(src, dir)
	require.NoError(t, err)

	in, err := tr.Inode(dst)
	require.NoError(t, err)
	assert.Equal(t, srcIn.Name, in.Name)
	assert.Equal(t, table.KindFile, in.Kind)
	assert.NotEqual(t, srcIn.Storage, in.Storage)

	content, err := tr.Content(in.Storage, in.Size)
	require.NoError(t, err)
	assert.Equal(t, "abcd0000", string(content))
	assert.Equal(t, uint64(3), size(t, tr, dir))
	assert.Equal(t, uint64(6), size(t, tr, table.RootIno))

	_, err = tr.Copy(dir, table.RootIno)
	assert.True(t, errs.Is(err, errs.CodeTypeMismatch))
	require.NoError(t, tr.Check())
}

func TestCopyShallow(t *testing.T) {
	tr := newTree(t)
	src, err := tr.Create("f", 2, table.KindFile, table.RootIno)
	require.NoError(t, err)
	dir, err := tr.Create("d", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	free := tr.Allocator().FreeBlocksCount()

	link, err := tr.CopyShallow(src, dir)
	require.NoError(t, err)

	in, err := tr.Inode(link)
	require.NoError(t, err)
	srcIn, err := tr.Inode(src)
	require.NoError(t, err)
	assert.Equal(t, table.KindShortcut, in.Kind)
	assert.Equal(t, srcIn.Storage, in.Storage)
	assert.Equal(t, uint64(1), in.Size)
	assert.Equal(t, free, tr.Allocator().FreeBlocksCount())
	assert.Equal(t, uint64(1), size(t, tr, dir))
	assert.Equal(t, uint64(4), size(t, tr, table.RootIno))
	require.NoError(t, tr.Check())

	_, err = tr.CopyShallow(link, table.RootIno)
	assert.True(t, errs.Is(err, errs.CodeTypeMismatch))

	// Deleting the shortcut leaves the original's storage alone.
	require.NoError(t, tr.Delete(link))
	assert.True(t, tr.Allocator().BlockInUse(srcIn.Storage))
	require.NoError(t, tr.Check())
}

func TestMove(t *testing.T) {
	tr := newTree(t)
	a, err := tr.Create("a", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	b, err := tr.Create("b", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	f, err := tr.Create("f", 3, table.KindFile, a)
	require.NoError(t, err)
	before, err := tr.Inode(f)
	require.NoError(t, err)

	require.NoError(t, tr.Move(f, b))

	after, err := tr.Inode(f)
	require.NoError(t, err)
	assert.Equal(t, before.Storage, after.Storage)
	assert.Equal(t, b, after.Parent)
	assert.Equal(t, uint64(1), size(t, tr, a))
	assert.Equal(t, uint64(4), size(t, tr, b))
	assert.Equal(t, uint64(6), size(t, tr, table.RootIno))
	require.NoError(t, tr.Check())

	require.NoError(t, tr.Move(b, a))
	p, err := tr.Path(f)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/f", p)
	assert.Equal(t, uint64(5), size(t, tr, a))
	require.NoError(t, tr.Check())
}

func TestMove_Rejects(t *testing.T) {
	tr := newTree(t)
	a, err := tr.Create("a", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	b, err := tr.Create("b", 1, table.KindDirectory, a)
	require.NoError(t, err)
	f, err := tr.Create("f", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)

	assert.True(t, errs.Is(tr.Move(a, a), errs.CodeInvalidInput))
	assert.True(t, errs.Is(tr.Move(a, b), errs.CodeInvalidInput))
	assert.True(t, errs.Is(tr.Move(table.RootIno, a), errs.CodeInvalidInput))
	assert.True(t, errs.Is(tr.Move(a, f), errs.CodeTypeMismatch))
	require.NoError(t, tr.Check())
}

func TestRename(t *testing.T) {
	tr := newTree(t)
	f, err := tr.Create("f", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)

	require.NoError(t, tr.Rename(f, "g"))
	got, err := tr.Resolve("g", table.RootIno)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = tr.Resolve("f", table.RootIno)
	assert.True(t, errs.Is(err, errs.CodeNotFound))
}

func TestWalk(t *testing.T) {
	tr := newTree(t)
	a, err := tr.Create("a", 1, table.KindDirectory, table.RootIno)
	require.NoError(t, err)
	_, err = tr.Create("x", 1, table.KindFile, a)
	require.NoError(t, err)
	_, err = tr.Create("b", 1, table.KindFile, table.RootIno)
	require.NoError(t, err)

	var visited []string
	var depths []int
	err = tr.Walk(table.RootIno, func(_ table.Ino, in table.Inode, depth int) error {
		visited = append(visited, string(in.Name))
		depths = append(depths, depth)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a", "x", "b"}, visited)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)
}

func TestCheck_DetectsCorruption(t *testing.T) {
	t.Run("size drift", func(t *testing.T) {
		tr := newTree(t)
		_, err := tr.Create("f", 2, table.KindFile, table.RootIno)
		require.NoError(t, err)
		root, err := tr.Inodes().Get(table.RootIno)
		require.NoError(t, err)
		root.Size = 2

		assert.True(t, errs.Is(tr.Check(), errs.CodeInternal))
	})

	t.Run("leaked block", func(t *testing.T) {
		tr := newTree(t)
		require.NoError(t, tr.Allocator().ReserveBlocks(10, 1))

		assert.True(t, errs.Is(tr.Check(), errs.CodeInternal))
	})

	t.Run("orphan inode", func(t *testing.T) {
		tr := newTree(t)
		require.NoError(t, tr.Allocator().ReserveInode(5))
		require.NoError(t, tr.Inodes().Put(5, table.Inode{Kind: table.KindFile, Name: "o", Size: 1}))

		assert.True(t, errs.Is(tr.Check(), errs.CodeInternal))
	})

	t.Run("short block", func(t *testing.T) {
		tr := newTree(t)
		f, err := tr.Create("f", 2, table.KindFile, table.RootIno)
		require.NoError(t, err)
		in, err := tr.Inode(f)
		require.NoError(t, err)
		b, err := tr.Blocks().Get(in.Storage + 1)
		require.NoError(t, err)
		b.Content = []byte("ab")

		assert.True(t, errs.Is(tr.Check(), errs.CodeInternal))
	})

	t.Run("wrong parent", func(t *testing.T) {
		tr := newTree(t)
		a, err := tr.Create("a", 1, table.KindDirectory, table.RootIno)
		require.NoError(t, err)
		f, err := tr.Create("f", 1, table.KindFile, a)
		require.NoError(t, err)
		in, err := tr.Inodes().Get(f)
		require.NoError(t, err)
		in.Parent = table.RootIno

		assert.True(t, errs.Is(tr.Check(), errs.CodeInternal))
	})
}
