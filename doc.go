// Package inodefs provides an in-memory, Unix-style inode filesystem.
//
// A FileSystem manages a fixed pool of inodes and data blocks, tracked by
// two bitmaps, and arranges them into a directory tree rooted at inode 0.
// Files own a contiguous run of blocks. Directories own blocks of their own
// and their size is the total number of blocks owned by everything below
// them. Shortcuts alias the first block of a file and own nothing.
//
// # Sessions
//
// Path arguments are resolved relative to a Session's current directory.
// Every FileSystem has a default session, used by the FileSystem methods
// themselves; NewSession creates independent cursors over the same tree.
// A directory holding any open session's cursor cannot be deleted, so close
// sessions that are no longer needed.
//
//	fsys, _ := inodefs.Format(1024)
//	_ = fsys.MakeDirectory("test1", 1)
//	_ = fsys.ChangeDirectory("test1")
//	_ = fsys.MakeFile("notes", 3)
//	info, _ := fsys.DirectoryInfo()
//	fmt.Println(info.Path, info.Blocks) // /test1 4
//
// # Snapshots
//
// The whole state can be written to and read from a textual snapshot, either
// through an io.Writer/io.Reader or through a core.FS provider:
//
//	mem := billy.NewMemory()
//	_ = fsys.Save(mem, "")             // writes root.filesystem
//	restored, _ := inodefs.Load(mem, "")
//
// Session cursors are not saved; sessions of a loaded filesystem start at
// the root. The block size is not stored either. It is recovered from the
// file content, which fills whole blocks.
//
// # Errors
//
// Errors carry a code from github.com/jmgilman/go/errors. Use IsCode to
// branch on them:
//
//	if inodefs.IsCode(err, inodefs.CodeAllocationExhausted) {
//	    // no contiguous run of free blocks
//	}
//
// Operations stop at the first error and do not roll back steps that
// already completed.
//
// # Thread Safety
//
// FileSystem, Session and View are not safe for concurrent use.
package inodefs
