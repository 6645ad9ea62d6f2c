package inodefs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"sort"
	"time"

	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/pathutil"
	"github.com/jmgilman/go/inodefs/internal/table"
)

// View is a read-only io/fs view of a FileSystem rooted at its root
// directory. Paths use io/fs syntax ("." is the root, no leading slash).
// A view reflects later changes to the filesystem. Of several siblings
// sharing a name, only the first created is visible.
type View struct {
	fs *FileSystem
}

var (
	_ core.ReadFS    = (*View)(nil)
	_ fs.ReadDirFS   = (*View)(nil)
	_ fs.ReadFileFS  = (*View)(nil)
	_ fs.StatFS      = (*View)(nil)
	_ fs.File        = (*file)(nil)
	_ io.ReaderAt    = (*file)(nil)
	_ fs.ReadDirFile = (*dirFile)(nil)
	_ fs.DirEntry    = (*dirEntry)(nil)
	_ fs.FileInfo    = (*fileInfo)(nil)
)

// View returns a read-only io/fs view of the filesystem.
func (f *FileSystem) View() *View {
	return &View{fs: f}
}

func (v *View) lookup(op, name string) (table.Ino, table.Inode, error) {
	if !fs.ValidPath(name) {
		return 0, table.Inode{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	t := v.fs.tree
	ino, err := t.Resolve(pathutil.Normalize(name), table.RootIno)
	if err != nil {
		return 0, table.Inode{}, errs.PathError(op, name, err)
	}
	in, err := t.Inode(ino)
	if err != nil {
		return 0, table.Inode{}, errs.PathError(op, name, err)
	}
	return ino, in, nil
}

// content returns the bytes of a file or the aliased first block of a
// shortcut.
func (v *View) content(in table.Inode) ([]byte, error) {
	switch in.Kind {
	case table.KindFile:
		return v.fs.tree.Content(in.Storage, in.Size)
	case table.KindShortcut:
		return v.fs.tree.Content(in.Storage, 1)
	default:
		return nil, errs.Newf(errs.CodeTypeMismatch, "%q is a directory", in.Name)
	}
}

func (v *View) info(ino table.Ino, in table.Inode) (*fileInfo, error) {
	fi := &fileInfo{
		name: string(in.Name),
		kind: in.Kind,
		ino:  ino,
	}
	if ino == table.RootIno {
		fi.name = "."
	}
	if in.IsDir() {
		fi.size = int64(in.Size) * int64(v.fs.tree.BlockSize())
		return fi, nil
	}
	data, err := v.content(in)
	if err != nil {
		return nil, err
	}
	fi.size = int64(len(data))
	return fi, nil
}

// Open opens the named file or directory.
func (v *View) Open(name string) (fs.File, error) {
	ino, in, err := v.lookup("open", name)
	if err != nil {
		return nil, err
	}
	fi, err := v.info(ino, in)
	if err != nil {
		return nil, errs.PathError("open", name, err)
	}

	if in.IsDir() {
		entries, err := v.entries(ino)
		if err != nil {
			return nil, errs.PathError("open", name, err)
		}
		return &dirFile{info: fi, entries: entries}, nil
	}

	data, err := v.content(in)
	if err != nil {
		return nil, errs.PathError("open", name, err)
	}
	return &file{info: fi, r: bytes.NewReader(data)}, nil
}

// Stat returns metadata for the named entry.
func (v *View) Stat(name string) (fs.FileInfo, error) {
	ino, in, err := v.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	fi, err := v.info(ino, in)
	if err != nil {
		return nil, errs.PathError("stat", name, err)
	}
	return fi, nil
}

// ReadDir returns the entries of the named directory sorted by name.
// Entries with equal names keep their insertion order.
func (v *View) ReadDir(name string) ([]fs.DirEntry, error) {
	ino, in, err := v.lookup("readdir", name)
	if err != nil {
		return nil, err
	}
	if !in.IsDir() {
		return nil, errs.PathError("readdir", name,
			errs.Newf(errs.CodeTypeMismatch, "%q is not a directory", in.Name))
	}
	entries, err := v.entries(ino)
	if err != nil {
		return nil, errs.PathError("readdir", name, err)
	}
	return entries, nil
}

// entries lists the children of dir sorted by name. Only the first of
// several same-named siblings is listed, since Open reaches only that one.
func (v *View) entries(dir table.Ino) ([]fs.DirEntry, error) {
	children, err := v.fs.tree.Children(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(children))
	seen := make(map[table.Name]struct{}, len(children))
	for _, child := range children {
		in, err := v.fs.tree.Inode(child)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[in.Name]; dup {
			continue
		}
		seen[in.Name] = struct{}{}
		fi, err := v.info(child, in)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &dirEntry{info: fi})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// ReadFile returns the content of the named file or shortcut.
func (v *View) ReadFile(name string) ([]byte, error) {
	_, in, err := v.lookup("readfile", name)
	if err != nil {
		return nil, err
	}
	data, err := v.content(in)
	if err != nil {
		return nil, errs.PathError("readfile", name, err)
	}
	return data, nil
}

// Exists reports whether the named entry exists.
func (v *View) Exists(name string) (bool, error) {
	_, err := v.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Walk walks the tree rooted at root in lexical order.
func (v *View) Walk(root string, walkFn fs.WalkDirFunc) error {
	return fs.WalkDir(v, root, walkFn)
}

type fileInfo struct {
	name string
	size int64
	kind table.Kind
	ino  table.Ino
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return fi.kind == table.KindDirectory }

// Sys returns the inode handle of the entry.
func (fi *fileInfo) Sys() any { return fi.ino }

func (fi *fileInfo) Mode() fs.FileMode {
	if fi.IsDir() {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

type dirEntry struct {
	info *fileInfo
}

func (d *dirEntry) Name() string               { return d.info.Name() }
func (d *dirEntry) IsDir() bool                { return d.info.IsDir() }
func (d *dirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d *dirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

type file struct {
	info *fileInfo
	r    *bytes.Reader
}

func (f *file) Stat() (fs.FileInfo, error)                { return f.info, nil }
func (f *file) Read(p []byte) (int, error)                { return f.r.Read(p) }
func (f *file) ReadAt(p []byte, off int64) (int, error)   { return f.r.ReadAt(p, off) }
func (f *file) Seek(off int64, whence int) (int64, error) { return f.r.Seek(off, whence) }
func (f *file) Close() error                              { return nil }

type dirFile struct {
	info    *fileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *dirFile) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dirFile) Close() error               { return nil }

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}
