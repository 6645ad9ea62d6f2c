package inodefs

import (
	"strings"

	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/logging"
	"github.com/jmgilman/go/inodefs/internal/pathutil"
	"github.com/jmgilman/go/inodefs/internal/table"
)

// Session is a cursor over a FileSystem. Path arguments of its operations
// are resolved relative to the cursor; a leading separator is ignored, so
// use ".." components to reach entries above it. Sessions are not safe for
// concurrent use.
type Session struct {
	fs     *FileSystem
	id     int
	cwd    table.Ino
	log    *logging.Logger
	closed bool
}

// Close unregisters the session. Its cursor no longer protects directories
// from deletion and its operations fail with CodeConflict. Closing the
// default session or closing twice does nothing.
func (s *Session) Close() error {
	if s == s.fs.def || s.closed {
		return nil
	}
	s.closed = true
	delete(s.fs.sessions, s)
	return nil
}

func (s *Session) checkOpen() error {
	if s.closed {
		return errs.Newf(errs.CodeConflict, "session %d is closed", s.id)
	}
	return nil
}

// FileSystem returns the filesystem the session operates on.
func (s *Session) FileSystem() *FileSystem { return s.fs }

// Cwd returns the path of the session's current directory.
func (s *Session) Cwd() string {
	p, err := s.fs.tree.Path(s.cwd)
	if err != nil {
		return pathutil.Separator
	}
	return p
}

func (s *Session) resolve(expr string) (table.Ino, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.fs.tree.Resolve(expr, s.cwd)
}

// resolveDir resolves expr and requires a directory.
func (s *Session) resolveDir(expr string) (table.Ino, error) {
	ino, err := s.resolve(expr)
	if err != nil {
		return 0, err
	}
	in, err := s.fs.tree.Inode(ino)
	if err != nil {
		return 0, err
	}
	if !in.IsDir() {
		return 0, errs.Newf(errs.CodeTypeMismatch, "%q is a %s, not a directory", in.Name, in.Kind)
	}
	return ino, nil
}

// splitPath separates the final component of expr from the directory part.
func splitPath(expr string) (dir, base string) {
	components := pathutil.Split(expr)
	if len(components) == 0 {
		return "", ""
	}
	last := len(components) - 1
	return strings.Join(components[:last], pathutil.Separator), components[last]
}

func (s *Session) done(op logging.Operation, path string, err error, fields ...any) error {
	logging.LogOperation(s.log, op, err, append([]any{"path", path}, fields...)...)
	return withPath(err, path)
}

// MakeFile creates a file of size blocks. The final component of name is
// the new entry's name; the rest is resolved as its parent directory.
// New files are filled with '0' bytes.
func (s *Session) MakeFile(name string, size uint64) error {
	ino, err := s.create(name, size, table.KindFile)
	return s.done(logging.OpMakeFile, name, err, "ino", ino, "blocks", size)
}

// MakeDirectory creates a directory that reserves size blocks of its own.
func (s *Session) MakeDirectory(name string, size uint64) error {
	ino, err := s.create(name, size, table.KindDirectory)
	return s.done(logging.OpMakeDirectory, name, err, "ino", ino, "blocks", size)
}

func (s *Session) create(expr string, size uint64, kind table.Kind) (table.Ino, error) {
	dirExpr, base := splitPath(expr)
	name, err := table.ParseName(base)
	if err != nil {
		return 0, err
	}
	dir, err := s.resolveDir(dirExpr)
	if err != nil {
		return 0, err
	}
	return s.fs.tree.Create(name, size, kind, dir)
}

// DeleteFile deletes a file or shortcut. Deleting a shortcut leaves the
// aliased storage allocated.
func (s *Session) DeleteFile(name string) error {
	err := func() error {
		ino, err := s.resolve(name)
		if err != nil {
			return err
		}
		in, err := s.fs.tree.Inode(ino)
		if err != nil {
			return err
		}
		if in.IsDir() {
			return errs.Newf(errs.CodeTypeMismatch, "%q is a directory", in.Name)
		}
		return s.fs.tree.Delete(ino)
	}()
	return s.done(logging.OpDeleteFile, name, err)
}

// DeleteDirectory deletes a directory and everything below it. The root and
// directories holding the cursor of any session cannot be deleted.
func (s *Session) DeleteDirectory(name string) error {
	err := func() error {
		ino, err := s.resolveDir(name)
		if err != nil {
			return err
		}
		if ino == table.RootIno {
			return errs.New(errs.CodeConflict, "cannot delete the root directory")
		}
		if s.fs.holdsCursor(ino) {
			return errs.Newf(errs.CodeConflict, "directory %q contains a session's current directory", name)
		}
		return s.fs.tree.DeleteSubtree(ino)
	}()
	return s.done(logging.OpDeleteDirectory, name, err)
}

// CopyFile copies the file src into the directory dst. The copy keeps the
// source name and owns a fresh run of blocks.
func (s *Session) CopyFile(src, dst string) error {
	var ino table.Ino
	err := func() error {
		from, err := s.resolve(src)
		if err != nil {
			return err
		}
		dir, err := s.resolveDir(dst)
		if err != nil {
			return err
		}
		ino, err = s.fs.tree.Copy(from, dir)
		return err
	}()
	return s.done(logging.OpCopyFile, src, err, "destination", dst, "ino", ino)
}

// CopyFileShallow creates a shortcut to the file src inside the directory
// dst. The shortcut aliases the file's first block and owns no storage.
func (s *Session) CopyFileShallow(src, dst string) error {
	var ino table.Ino
	err := func() error {
		from, err := s.resolve(src)
		if err != nil {
			return err
		}
		dir, err := s.resolveDir(dst)
		if err != nil {
			return err
		}
		ino, err = s.fs.tree.CopyShallow(from, dir)
		return err
	}()
	return s.done(logging.OpCopyShallow, src, err, "destination", dst, "ino", ino)
}

// MoveFile moves the entry src into the directory dst without touching its
// storage. Directories can be moved, but not below themselves.
func (s *Session) MoveFile(src, dst string) error {
	err := func() error {
		from, err := s.resolve(src)
		if err != nil {
			return err
		}
		dir, err := s.resolveDir(dst)
		if err != nil {
			return err
		}
		return s.fs.tree.Move(from, dir)
	}()
	return s.done(logging.OpMoveFile, src, err, "destination", dst)
}

// EditFile renames the entry name to newName. Siblings with the same name
// are not checked for.
func (s *Session) EditFile(name, newName string) error {
	err := func() error {
		n, err := table.ParseName(newName)
		if err != nil {
			return err
		}
		ino, err := s.resolve(name)
		if err != nil {
			return err
		}
		return s.fs.tree.Rename(ino, n)
	}()
	return s.done(logging.OpEditFile, name, err, "new_name", newName)
}

// ChangeDirectory moves the cursor. On failure the cursor is unchanged.
func (s *Session) ChangeDirectory(name string) error {
	ino, err := s.resolveDir(name)
	if err == nil {
		s.cwd = ino
	}
	return s.done(logging.OpChangeDirectory, name, err, "ino", ino)
}

// FileInfo reports on the entry name and writes the report to the output
// sink.
func (s *Session) FileInfo(name string) (Info, error) {
	ino, err := s.resolve(name)
	if err != nil {
		return Info{}, withPath(err, name)
	}
	return s.report(ino)
}

// DirectoryInfo reports on the current directory.
func (s *Session) DirectoryInfo() (Info, error) {
	return s.report(s.cwd)
}

// Info reports on the root directory.
func (s *Session) Info() (Info, error) {
	return s.report(table.RootIno)
}

func (s *Session) report(ino table.Ino) (Info, error) {
	if err := s.checkOpen(); err != nil {
		return Info{}, err
	}
	info, err := s.fs.describe(ino)
	if err != nil {
		return Info{}, err
	}
	if _, err := info.WriteTo(s.fs.cfg.output); err != nil {
		return Info{}, errs.Wrap(err, errs.CodeInternal, "failed to write report")
	}
	return info, nil
}
