package inodefs

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmgilman/go/inodefs/internal/table"
)

// Info is the report produced by FileInfo, DirectoryInfo and Info.
type Info struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Kind   string `json:"kind" yaml:"kind"`
	Ino    Ino    `json:"ino" yaml:"ino"`
	Blocks uint64 `json:"blocks" yaml:"blocks"`
	Bytes  uint64 `json:"bytes" yaml:"bytes"`
	// Children lists directory entries in insertion order. Nil for files
	// and shortcuts.
	Children []Entry `json:"children,omitempty" yaml:"children,omitempty"`
}

// Entry is one child of a directory report.
type Entry struct {
	Name   string `json:"name" yaml:"name"`
	Kind   string `json:"kind" yaml:"kind"`
	Ino    Ino    `json:"ino" yaml:"ino"`
	Blocks uint64 `json:"blocks" yaml:"blocks"`
}

// IsDir reports whether the report describes a directory.
func (i Info) IsDir() bool { return i.Kind == table.KindDirectory.String() }

// ChildNames returns the names of the children in order.
func (i Info) ChildNames() []string {
	names := make([]string, len(i.Children))
	for n, c := range i.Children {
		names[n] = c.Name
	}
	return names
}

// String renders the report as text:
//
//	Directory "test2"
//	Path: /test1/test2
//	Size: 4096 B
//	Files (1): test3
func (i Info) String() string {
	var b strings.Builder
	kind := i.Kind
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	fmt.Fprintf(&b, "%s %q\n", kind, i.Name)
	fmt.Fprintf(&b, "Path: %s\n", i.Path)
	fmt.Fprintf(&b, "Size: %d B\n", i.Bytes)
	if i.IsDir() {
		fmt.Fprintf(&b, "Files (%d):", len(i.Children))
		for _, name := range i.ChildNames() {
			b.WriteString(" ")
			b.WriteString(name)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// WriteTo writes the text rendering of the report to w.
func (i Info) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, i.String())
	return int64(n), err
}

func (f *FileSystem) describe(ino table.Ino) (Info, error) {
	in, err := f.tree.Inode(ino)
	if err != nil {
		return Info{}, err
	}
	path, err := f.tree.Path(ino)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Name:   string(in.Name),
		Path:   path,
		Kind:   in.Kind.String(),
		Ino:    ino,
		Blocks: in.Size,
		Bytes:  in.Size * uint64(f.tree.BlockSize()),
	}
	if !in.IsDir() {
		return info, nil
	}

	children, err := f.tree.Children(ino)
	if err != nil {
		return Info{}, err
	}
	info.Children = make([]Entry, 0, len(children))
	for _, child := range children {
		cin, err := f.tree.Inode(child)
		if err != nil {
			return Info{}, err
		}
		info.Children = append(info.Children, Entry{
			Name:   string(cin.Name),
			Kind:   cin.Kind.String(),
			Ino:    child,
			Blocks: cin.Size,
		})
	}
	return info, nil
}
