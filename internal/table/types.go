// Package table provides the fixed-capacity inode table and block pool.
package table

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jmgilman/go/inodefs/internal/errs"
)

// Ino is the handle of an inode table slot.
type Ino uint64

// BlockID is the handle of a block pool slot.
type BlockID uint64

// RootIno is the handle of the root directory. Its parent is itself.
const RootIno Ino = 0

// RootBlock is the block preallocated for the root directory.
const RootBlock BlockID = 0

// MaxNameLen is the longest name, in bytes, an inode can hold.
const MaxNameLen = 255

// Kind identifies what an inode describes.
type Kind uint8

const (
	// KindNone marks an unused inode slot.
	KindNone Kind = iota
	// KindFile is a regular file owning a run of blocks.
	KindFile
	// KindDirectory is a directory whose first block lists its children.
	KindDirectory
	// KindShortcut aliases the blocks of a file without owning them.
	KindShortcut
)

// String returns a human readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindShortcut:
		return "shortcut"
	default:
		return "none"
	}
}

// Char returns the single character used for the kind in snapshots.
func (k Kind) Char() byte {
	switch k {
	case KindFile:
		return 'f'
	case KindDirectory:
		return 'd'
	case KindShortcut:
		return 's'
	default:
		return '0'
	}
}

// ParseKind is the inverse of Kind.Char.
func ParseKind(c byte) (Kind, error) {
	switch c {
	case 'f':
		return KindFile, nil
	case 'd':
		return KindDirectory, nil
	case 's':
		return KindShortcut, nil
	case '0':
		return KindNone, nil
	default:
		return KindNone, errs.Newf(errs.CodeInvalidInput, "unknown kind %q", c)
	}
}

// Name is a validated entry name. The zero value is the empty name of an
// unused slot.
type Name string

// ParseName validates s as an entry name. Names are at most MaxNameLen bytes
// of valid UTF-8, contain no separator, whitespace or control characters, and
// are neither "." nor "..".
func ParseName(s string) (Name, error) {
	switch {
	case s == "":
		return "", errs.New(errs.CodeInvalidName, "name is empty")
	case len(s) > MaxNameLen:
		return "", errs.Newf(errs.CodeNameTooLong, "name is %d bytes (max %d)", len(s), MaxNameLen)
	case s == "." || s == "..":
		return "", errs.Newf(errs.CodeInvalidName, "name %q is reserved", s)
	case strings.ContainsRune(s, '/'):
		return "", errs.Newf(errs.CodeInvalidName, "name %q contains a separator", s)
	case !utf8.ValidString(s):
		return "", errs.Newf(errs.CodeInvalidName, "name %q is not valid UTF-8", s)
	}

	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", errs.Newf(errs.CodeInvalidName, "name %q contains whitespace or control characters", s)
		}
	}
	return Name(s), nil
}

// String returns the name as a string.
func (n Name) String() string { return string(n) }

// Inode is the metadata record of one entry.
type Inode struct {
	// Parent is the containing directory.
	Parent Ino
	// Storage is the first block of the entry's run. For a shortcut it is
	// the first block of the file it aliases.
	Storage BlockID
	// Size is the block count. Directories include their whole subtree.
	Size uint64
	Kind Kind
	Name Name
}

// OwnedBlocks returns the number of blocks this entry contributes to its
// ancestors. Shortcuts own nothing.
func (in Inode) OwnedBlocks() uint64 {
	if in.Kind == KindShortcut {
		return 0
	}
	return in.Size
}

// IsDir reports whether the inode is a directory.
func (in Inode) IsDir() bool { return in.Kind == KindDirectory }

// Block is one storage unit. Files use Content; directories use Children,
// kept in insertion order.
type Block struct {
	Content  []byte
	Children []Ino
}

// IndexOf returns the position of ino in the child list, or -1.
func (b *Block) IndexOf(ino Ino) int {
	for i, child := range b.Children {
		if child == ino {
			return i
		}
	}
	return -1
}

// RemoveAt removes the child at position i, keeping the order of the rest.
func (b *Block) RemoveAt(i int) {
	b.Children = append(b.Children[:i], b.Children[i+1:]...)
	if len(b.Children) == 0 {
		b.Children = nil
	}
}
