// Package codec reads and writes filesystem snapshots.
//
// A snapshot is line oriented text:
//
//	<inode capacity>
//	<block capacity>
//	<inode bitmap rows>       ceil(capacity/8) rows of eight 0/1 characters
//	<block bitmap rows>
//	<inode records>           "parent storage size kind name", one per slot
//	<block records>           three lines per slot: content, child count, children
//
// Content is base64 encoded. Empty content and empty child lists are written
// as "-", unused names as "/".
package codec

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmgilman/go/inodefs/internal/bitmap"
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/table"
)

const (
	emptyField = "-"
	emptyName  = "/"
)

// State is the persisted part of a filesystem.
type State struct {
	InodeBitmap *bitmap.Bitmap
	BlockBitmap *bitmap.Bitmap
	Inodes      *table.Inodes
	Blocks      *table.Blocks
}

// BlockSize returns the content length of the first allocated block that
// holds content, or 0 when no block does. Snapshots do not record the block
// size; every file block is filled to it.
func (s State) BlockSize() int {
	for i := 0; i < s.Blocks.Len(); i++ {
		if used, err := s.BlockBitmap.Get(i); err != nil || !used {
			continue
		}
		b, err := s.Blocks.Get(table.BlockID(i))
		if err == nil && len(b.Content) > 0 {
			return len(b.Content)
		}
	}
	return 0
}

// Encode writes s to w.
func Encode(w io.Writer, s State) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n%d\n", s.Inodes.Len(), s.Blocks.Len())
	writeBitmap(bw, s.InodeBitmap)
	writeBitmap(bw, s.BlockBitmap)

	for i := 0; i < s.Inodes.Len(); i++ {
		in, err := s.Inodes.Get(table.Ino(i))
		if err != nil {
			return err
		}
		name := string(in.Name)
		if name == "" {
			name = emptyName
		}
		fmt.Fprintf(bw, "%d %d %d %c %s\n", in.Parent, in.Storage, in.Size, in.Kind.Char(), name)
	}

	for i := 0; i < s.Blocks.Len(); i++ {
		b, err := s.Blocks.Get(table.BlockID(i))
		if err != nil {
			return err
		}
		content := emptyField
		if len(b.Content) > 0 {
			content = base64.StdEncoding.EncodeToString(b.Content)
		}
		children := emptyField
		if len(b.Children) > 0 {
			parts := make([]string, len(b.Children))
			for j, c := range b.Children {
				parts[j] = strconv.FormatUint(uint64(c), 10)
			}
			children = strings.Join(parts, " ")
		}
		fmt.Fprintf(bw, "%s\n%d\n%s\n", content, len(b.Children), children)
	}

	if err := bw.Flush(); err != nil {
		return errs.Wrap(err, errs.CodeInternal, "failed to write snapshot")
	}
	return nil
}

func writeBitmap(w *bufio.Writer, bm *bitmap.Bitmap) {
	for _, row := range bm.Bytes() {
		for bit := 0; bit < bitmap.BitsPerRow; bit++ {
			if row&(1<<bit) != 0 {
				w.WriteByte('1')
			} else {
				w.WriteByte('0')
			}
		}
		w.WriteByte('\n')
	}
}
