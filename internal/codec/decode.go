package codec

import (
	"bufio"
	"encoding/base64"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/jmgilman/go/inodefs/internal/bitmap"
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/table"
)

// MaxCapacity bounds the capacities accepted from a snapshot header.
const MaxCapacity = 1 << 24

type lineReader struct {
	r    *bufio.Reader
	line int
}

func (lr *lineReader) next() (string, error) {
	s, err := lr.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		if errors.Is(err, io.EOF) {
			return "", lr.corrupt(nil, "unexpected end of snapshot")
		}
		return "", errs.Wrap(err, errs.CodeInternal, "failed to read snapshot")
	}
	lr.line++
	return strings.TrimRight(s, "\r\n"), nil
}

func (lr *lineReader) corrupt(cause error, format string, args ...interface{}) error {
	args = append([]interface{}{lr.line}, args...)
	if cause != nil {
		return errs.Wrapf(cause, errs.CodeCorruptSnapshot, "line %d: "+format, args...)
	}
	return errs.Newf(errs.CodeCorruptSnapshot, "line %d: "+format, args...)
}

func (lr *lineReader) uint(field string) (uint64, error) {
	s, err := lr.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, lr.corrupt(err, "invalid %s", field)
	}
	return n, nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (State, error) {
	lr := &lineReader{r: bufio.NewReader(r)}

	inodeCap, err := lr.capacity("inode capacity")
	if err != nil {
		return State{}, err
	}
	blockCap, err := lr.capacity("block capacity")
	if err != nil {
		return State{}, err
	}

	s := State{
		Inodes: table.NewInodes(inodeCap),
		Blocks: table.NewBlocks(blockCap),
	}
	if s.InodeBitmap, err = lr.bitmap(inodeCap); err != nil {
		return State{}, err
	}
	if s.BlockBitmap, err = lr.bitmap(blockCap); err != nil {
		return State{}, err
	}

	for i := 0; i < inodeCap; i++ {
		in, err := lr.inode(inodeCap)
		if err != nil {
			return State{}, err
		}
		if err := s.Inodes.Put(table.Ino(i), in); err != nil {
			return State{}, err
		}
	}
	for i := 0; i < blockCap; i++ {
		b, err := lr.block(inodeCap)
		if err != nil {
			return State{}, err
		}
		if err := s.Blocks.Put(table.BlockID(i), b); err != nil {
			return State{}, err
		}
	}

	return s, nil
}

func (lr *lineReader) capacity(field string) (int, error) {
	n, err := lr.uint(field)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > MaxCapacity {
		return 0, lr.corrupt(nil, "%s %d outside [1, %d]", field, n, MaxCapacity)
	}
	return int(n), nil
}

func (lr *lineReader) bitmap(size int) (*bitmap.Bitmap, error) {
	packed := make([]byte, bitmap.Rows(size))
	for i := range packed {
		row, err := lr.next()
		if err != nil {
			return nil, err
		}
		if len(row) != bitmap.BitsPerRow {
			return nil, lr.corrupt(nil, "bitmap row must have %d characters, got %d", bitmap.BitsPerRow, len(row))
		}
		for bit := 0; bit < bitmap.BitsPerRow; bit++ {
			switch row[bit] {
			case '0':
			case '1':
				packed[i] |= 1 << bit
			default:
				return nil, lr.corrupt(nil, "invalid bitmap character %q", row[bit])
			}
		}
	}

	bm, err := bitmap.FromBytes(size, packed)
	if err != nil {
		return nil, lr.corrupt(err, "invalid bitmap")
	}
	return bm, nil
}

func (lr *lineReader) inode(inodeCap int) (table.Inode, error) {
	line, err := lr.next()
	if err != nil {
		return table.Inode{}, err
	}
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return table.Inode{}, lr.corrupt(nil, "inode record needs 5 fields, got %d", len(fields))
	}

	var nums [3]uint64
	for i := range nums {
		if nums[i], err = strconv.ParseUint(fields[i], 10, 64); err != nil {
			return table.Inode{}, lr.corrupt(err, "invalid inode field %d", i+1)
		}
	}
	if nums[0] >= uint64(inodeCap) {
		return table.Inode{}, lr.corrupt(nil, "parent %d outside inode table", nums[0])
	}

	if len(fields[3]) != 1 {
		return table.Inode{}, lr.corrupt(nil, "invalid kind %q", fields[3])
	}
	kind, err := table.ParseKind(fields[3][0])
	if err != nil {
		return table.Inode{}, lr.corrupt(err, "invalid kind")
	}

	var name table.Name
	if fields[4] != emptyName {
		if name, err = table.ParseName(fields[4]); err != nil {
			return table.Inode{}, lr.corrupt(err, "invalid name")
		}
	}

	return table.Inode{
		Parent:  table.Ino(nums[0]),
		Storage: table.BlockID(nums[1]),
		Size:    nums[2],
		Kind:    kind,
		Name:    name,
	}, nil
}

func (lr *lineReader) block(inodeCap int) (table.Block, error) {
	var b table.Block

	content, err := lr.next()
	if err != nil {
		return b, err
	}
	if content != emptyField {
		if b.Content, err = base64.StdEncoding.DecodeString(content); err != nil {
			return b, lr.corrupt(err, "invalid block content")
		}
	}

	count, err := lr.uint("child count")
	if err != nil {
		return b, err
	}
	if count > uint64(inodeCap) {
		return b, lr.corrupt(nil, "child count %d exceeds inode capacity", count)
	}

	line, err := lr.next()
	if err != nil {
		return b, err
	}
	var fields []string
	if line != emptyField {
		fields = strings.Fields(line)
	}
	if uint64(len(fields)) != count {
		return b, lr.corrupt(nil, "expected %d children, got %d", count, len(fields))
	}
	for _, f := range fields {
		c, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return b, lr.corrupt(err, "invalid child handle")
		}
		if c >= uint64(inodeCap) {
			return b, lr.corrupt(nil, "child %d outside inode table", c)
		}
		b.Children = append(b.Children, table.Ino(c))
	}
	return b, nil
}
