package inodefs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"

	"github.com/jmgilman/go/fs/core"
	"github.com/opencontainers/go-digest"

	"github.com/jmgilman/go/inodefs/internal/alloc"
	"github.com/jmgilman/go/inodefs/internal/codec"
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/logging"
	"github.com/jmgilman/go/inodefs/internal/table"
	"github.com/jmgilman/go/inodefs/internal/tree"
)

const (
	// DefaultSnapshotName is the snapshot base name used when none is given.
	DefaultSnapshotName = "root"

	// SnapshotSuffix is appended to snapshot base names.
	SnapshotSuffix = ".filesystem"
)

// Ino is an inode handle.
type Ino = table.Ino

// Kind is the kind of an entry.
type Kind = table.Kind

// Entry kinds.
const (
	KindFile      = table.KindFile
	KindDirectory = table.KindDirectory
	KindShortcut  = table.KindShortcut
)

// FileSystem is an in-memory inode filesystem with fixed capacities.
// It is not safe for concurrent use.
type FileSystem struct {
	tree     *tree.Tree
	cfg      config
	log      *logging.Logger
	def      *Session
	sessions map[*Session]struct{}
	nextID   int
}

// Format creates an empty filesystem with capacity inodes. The block
// capacity equals capacity unless WithBlockCapacity is given.
func Format(capacity int, opts ...Option) (*FileSystem, error) {
	cfg := newConfig(opts)
	blocks := cfg.blockCapacity
	if blocks == 0 {
		blocks = capacity
	}

	t, err := tree.Format(capacity, blocks, cfg.blockSize)
	logging.LogOperation(cfg.logger, logging.OpFormat, err, "inodes", capacity, "blocks", blocks)
	if err != nil {
		return nil, err
	}
	return newFileSystem(t, cfg), nil
}

func newFileSystem(t *tree.Tree, cfg config) *FileSystem {
	f := &FileSystem{
		tree:     t,
		cfg:      cfg,
		log:      cfg.logger,
		sessions: make(map[*Session]struct{}),
	}
	f.def = f.NewSession()
	return f
}

// Decode reads a snapshot and rebuilds the filesystem it describes.
// Snapshots whose structure is inconsistent fail with CodeCorruptSnapshot.
// The block size is that of the stored file content; a snapshot without
// files uses the configured one.
func Decode(r io.Reader, opts ...Option) (*FileSystem, error) {
	cfg := newConfig(opts)

	state, err := codec.Decode(r)
	if err != nil {
		return nil, err
	}
	blockSize := cfg.blockSize
	if n := state.BlockSize(); n > 0 {
		blockSize = n
	}
	t := tree.New(
		alloc.FromBitmaps(state.InodeBitmap, state.BlockBitmap),
		state.Inodes,
		state.Blocks,
		blockSize,
	)
	if err := t.Check(); err != nil {
		return nil, errs.Wrap(err, errs.CodeCorruptSnapshot, "snapshot is inconsistent")
	}
	return newFileSystem(t, cfg), nil
}

// Load reads the snapshot name+".filesystem" from fsys. An empty name
// selects "root". Sessions of the loaded filesystem start at the root.
func Load(fsys core.ReadFS, name string, opts ...Option) (*FileSystem, error) {
	path := SnapshotName(name)
	cfg := newConfig(opts)

	data, err := fsys.ReadFile(path)
	if err != nil {
		code := errs.CodeInternal
		if errors.Is(err, fs.ErrNotExist) {
			code = errs.CodeNotFound
		}
		err = errs.Wrapf(err, code, "failed to read snapshot %s", path)
		logging.LogOperation(cfg.logger, logging.OpLoad, err, "snapshot", path)
		return nil, err
	}

	f, err := Decode(bytes.NewReader(data), opts...)
	logging.LogOperation(cfg.logger, logging.OpLoad, err, "snapshot", path, "bytes", len(data))
	if err != nil {
		return nil, withPath(err, path)
	}
	return f, nil
}

// SnapshotName returns the file name a snapshot with base name is stored under.
func SnapshotName(name string) string {
	if name == "" {
		name = DefaultSnapshotName
	}
	return name + SnapshotSuffix
}

// Encode writes a snapshot of the filesystem to w. Session cursors are not
// part of the snapshot.
func (f *FileSystem) Encode(w io.Writer) error {
	a := f.tree.Allocator()
	return codec.Encode(w, codec.State{
		InodeBitmap: a.InodeBitmap(),
		BlockBitmap: a.BlockBitmap(),
		Inodes:      f.tree.Inodes(),
		Blocks:      f.tree.Blocks(),
	})
}

// Digest returns the SHA-256 digest of the snapshot Encode would write.
// Two filesystems with equal digests load to identical state.
func (f *FileSystem) Digest() (digest.Digest, error) {
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return "", err
	}
	return digest.FromBytes(buf.Bytes()), nil
}

// Save writes a snapshot to name+".filesystem" in fsys, replacing any
// existing file. An empty name selects "root".
func (f *FileSystem) Save(fsys core.WriteFS, name string) error {
	path := SnapshotName(name)

	var buf bytes.Buffer
	err := f.Encode(&buf)
	if err == nil {
		if werr := fsys.WriteFile(path, buf.Bytes(), 0o644); werr != nil {
			err = errs.Wrapf(werr, errs.CodeInternal, "failed to write snapshot %s", path)
		}
	}
	logging.LogOperation(f.log, logging.OpSave, err, "snapshot", path, "bytes", buf.Len())
	return err
}

// BlockSize returns the number of content bytes per block.
func (f *FileSystem) BlockSize() int { return f.tree.BlockSize() }

// Stats describes capacity usage.
type Stats struct {
	InodeCapacity int `json:"inode_capacity" yaml:"inode_capacity"`
	InodesUsed    int `json:"inodes_used" yaml:"inodes_used"`
	InodesFree    int `json:"inodes_free" yaml:"inodes_free"`
	BlockCapacity int `json:"block_capacity" yaml:"block_capacity"`
	BlocksUsed    int `json:"blocks_used" yaml:"blocks_used"`
	BlocksFree    int `json:"blocks_free" yaml:"blocks_free"`
	BlockSize     int `json:"block_size" yaml:"block_size"`
}

// Stats returns current capacity usage.
func (f *FileSystem) Stats() Stats {
	a := f.tree.Allocator()
	return Stats{
		InodeCapacity: a.InodeBitmap().Len(),
		InodesUsed:    a.InodeBitmap().Count(),
		InodesFree:    a.FreeInodes(),
		BlockCapacity: a.BlockBitmap().Len(),
		BlocksUsed:    a.BlockBitmap().Count(),
		BlocksFree:    a.FreeBlocksCount(),
		BlockSize:     f.tree.BlockSize(),
	}
}

// Check verifies the structural invariants of the filesystem: directory
// sizes, block ownership against the bitmaps, and parent links.
func (f *FileSystem) Check() error {
	return f.tree.Check()
}

// Session returns the default session that FileSystem's own operation
// methods use.
func (f *FileSystem) Session() *Session {
	return f.def
}

// NewSession returns a new session with its cursor at the root. The session
// stays registered until it is closed.
func (f *FileSystem) NewSession() *Session {
	f.nextID++
	s := &Session{
		fs:  f,
		id:  f.nextID,
		cwd: table.RootIno,
		log: f.log.With("session", f.nextID),
	}
	f.sessions[s] = struct{}{}
	return s
}

// holdsCursor reports whether any open session's cursor lies in the subtree
// of dir.
func (f *FileSystem) holdsCursor(dir table.Ino) bool {
	for s := range f.sessions {
		if f.tree.IsAncestor(dir, s.cwd) {
			return true
		}
	}
	return false
}

// MakeFile runs Session.MakeFile on the default session.
func (f *FileSystem) MakeFile(name string, size uint64) error {
	return f.Session().MakeFile(name, size)
}

// MakeDirectory runs Session.MakeDirectory on the default session.
func (f *FileSystem) MakeDirectory(name string, size uint64) error {
	return f.Session().MakeDirectory(name, size)
}

// DeleteFile runs Session.DeleteFile on the default session.
func (f *FileSystem) DeleteFile(name string) error {
	return f.Session().DeleteFile(name)
}

// DeleteDirectory runs Session.DeleteDirectory on the default session.
func (f *FileSystem) DeleteDirectory(name string) error {
	return f.Session().DeleteDirectory(name)
}

// CopyFile runs Session.CopyFile on the default session.
func (f *FileSystem) CopyFile(src, dst string) error {
	return f.Session().CopyFile(src, dst)
}

// CopyFileShallow runs Session.CopyFileShallow on the default session.
func (f *FileSystem) CopyFileShallow(src, dst string) error {
	return f.Session().CopyFileShallow(src, dst)
}

// MoveFile runs Session.MoveFile on the default session.
func (f *FileSystem) MoveFile(src, dst string) error {
	return f.Session().MoveFile(src, dst)
}

// EditFile runs Session.EditFile on the default session.
func (f *FileSystem) EditFile(name, newName string) error {
	return f.Session().EditFile(name, newName)
}

// ChangeDirectory runs Session.ChangeDirectory on the default session.
func (f *FileSystem) ChangeDirectory(name string) error {
	return f.Session().ChangeDirectory(name)
}

// FileInfo runs Session.FileInfo on the default session.
func (f *FileSystem) FileInfo(name string) (Info, error) {
	return f.Session().FileInfo(name)
}

// DirectoryInfo runs Session.DirectoryInfo on the default session.
func (f *FileSystem) DirectoryInfo() (Info, error) {
	return f.Session().DirectoryInfo()
}

// Info runs Session.Info on the default session.
func (f *FileSystem) Info() (Info, error) {
	return f.Session().Info()
}

// Cwd returns the path of the default session's cursor.
func (f *FileSystem) Cwd() string {
	return f.Session().Cwd()
}
