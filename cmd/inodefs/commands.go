package main

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/urfave/cli/v2"

	"github.com/jmgilman/go/inodefs"
	"github.com/jmgilman/go/inodefs/internal/errs"
)

func sizeFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:  "size",
		Usage: "number of blocks to allocate",
		Value: inodefs.DefaultSize,
	}
}

func (a *app) commands() []*cli.Command {
	return []*cli.Command{{
		Name:  "format",
		Usage: "create an empty filesystem snapshot",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "capacity",
				Usage: "number of inodes",
				Value: a.cfg.Capacity,
			},
			&cli.IntFlag{
				Name:  "block-capacity",
				Usage: "number of blocks (defaults to the inode capacity)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite an existing snapshot",
			},
		},
		Action: a.format,
	}, {
		Name:   "info",
		Usage:  "report on the root directory",
		Action: a.withFS(false, a.info),
	}, {
		Name:      "stat",
		Usage:     "report on an entry",
		ArgsUsage: "PATH",
		Action:    a.withFS(false, a.stat),
	}, {
		Name:      "ls",
		Usage:     "list a directory",
		ArgsUsage: "[PATH]",
		Action:    a.withFS(false, a.ls),
	}, {
		Name:      "tree",
		Usage:     "print the directory tree",
		ArgsUsage: "[PATH]",
		Action:    a.withFS(false, a.tree),
	}, {
		Name:      "cat",
		Usage:     "print the content of a file",
		ArgsUsage: "PATH",
		Action:    a.withFS(false, a.cat),
	}, {
		Name:      "mkfile",
		Aliases:   []string{"mk"},
		Usage:     "create a file filled with '0' bytes",
		ArgsUsage: "PATH",
		Flags:     []cli.Flag{sizeFlag()},
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 1)
			if err != nil {
				return err
			}
			return fsys.MakeFile(argv[0], ctx.Uint64("size"))
		}),
	}, {
		Name:      "mkdir",
		Usage:     "create a directory",
		ArgsUsage: "PATH",
		Flags:     []cli.Flag{sizeFlag()},
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 1)
			if err != nil {
				return err
			}
			return fsys.MakeDirectory(argv[0], ctx.Uint64("size"))
		}),
	}, {
		Name:      "rm",
		Usage:     "delete a file or shortcut",
		ArgsUsage: "PATH",
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 1)
			if err != nil {
				return err
			}
			return fsys.DeleteFile(argv[0])
		}),
	}, {
		Name:      "rmdir",
		Usage:     "delete a directory and everything below it",
		ArgsUsage: "PATH",
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 1)
			if err != nil {
				return err
			}
			return fsys.DeleteDirectory(argv[0])
		}),
	}, {
		Name:      "cp",
		Usage:     "copy a file into a directory",
		ArgsUsage: "SRC DIR",
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 2)
			if err != nil {
				return err
			}
			return fsys.CopyFile(argv[0], argv[1])
		}),
	}, {
		Name:      "ln",
		Usage:     "create a shortcut to a file in a directory",
		ArgsUsage: "SRC DIR",
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 2)
			if err != nil {
				return err
			}
			return fsys.CopyFileShallow(argv[0], argv[1])
		}),
	}, {
		Name:      "mv",
		Usage:     "move an entry into a directory",
		ArgsUsage: "SRC DIR",
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 2)
			if err != nil {
				return err
			}
			return fsys.MoveFile(argv[0], argv[1])
		}),
	}, {
		Name:      "rename",
		Aliases:   []string{"ed"},
		Usage:     "rename an entry",
		ArgsUsage: "PATH NAME",
		Action: a.withFS(true, func(fsys *inodefs.FileSystem, ctx *cli.Context) error {
			argv, err := args(ctx, 2)
			if err != nil {
				return err
			}
			return fsys.EditFile(argv[0], argv[1])
		}),
	}, {
		Name:  "run",
		Usage: "run one operation per line from a script (- for stdin) in a single session",
		Description: "Lines use the operation names of the interpreter, for example\n" +
			"\"mkdir test1\", \"go test1\" or \"mk test3 3\". Blank lines and lines\n" +
			"starting with # are skipped. The snapshot is saved only when every\n" +
			"line succeeds.",
		ArgsUsage: "SCRIPT",
		Action:    a.withFS(true, a.run),
	}, {
		Name:   "check",
		Usage:  "verify the consistency of the snapshot",
		Action: a.withFS(false, a.check),
	}, {
		Name:   "stats",
		Usage:  "report capacity usage",
		Action: a.withFS(false, a.stats),
	}}
}

func (a *app) format(ctx *cli.Context) error {
	base, err := a.snapshot()
	if err != nil {
		return err
	}
	path := inodefs.SnapshotName(base)

	exists, err := a.storage.Exists(path)
	if err != nil {
		return errs.Wrapf(err, errs.CodeInternal, "checking %s", path)
	}
	if exists && !ctx.Bool("force") {
		return errs.Newf(errs.CodeConflict, "%s already exists (use --force to overwrite)", path)
	}

	opts := a.options()
	if n := ctx.Int("block-capacity"); n > 0 {
		opts = append(opts, inodefs.WithBlockCapacity(n))
	}
	fsys, err := inodefs.Format(ctx.Int("capacity"), opts...)
	if err != nil {
		return err
	}
	return fsys.Save(a.storage, base)
}

func (a *app) info(fsys *inodefs.FileSystem, _ *cli.Context) error {
	info, err := fsys.Info()
	if err != nil {
		return err
	}
	return a.render(info, info.String())
}

func (a *app) stat(fsys *inodefs.FileSystem, ctx *cli.Context) error {
	argv, err := args(ctx, 1)
	if err != nil {
		return err
	}
	info, err := fsys.FileInfo(argv[0])
	if err != nil {
		return err
	}
	return a.render(info, info.String())
}

func (a *app) ls(fsys *inodefs.FileSystem, ctx *cli.Context) error {
	path := "."
	if ctx.NArg() > 0 {
		path = ctx.Args().First()
	}
	info, err := fsys.FileInfo(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errs.Newf(errs.CodeTypeMismatch, "%s is not a directory", path)
	}

	var b strings.Builder
	for _, c := range info.Children {
		fmt.Fprintf(&b, "%-9s %6d  %s\n", c.Kind, c.Blocks, c.Name)
	}
	return a.render(info.Children, b.String())
}

func (a *app) tree(fsys *inodefs.FileSystem, ctx *cli.Context) error {
	root := "."
	if ctx.NArg() > 0 {
		root = strings.Trim(ctx.Args().First(), "/")
		if root == "" {
			root = "."
		}
	}

	var paths []string
	var b strings.Builder
	err := fsys.View().Walk(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		depth := 0
		if path != root {
			rel := path
			if root != "." {
				rel = strings.TrimPrefix(path, root+"/")
			}
			depth = strings.Count(rel, "/") + 1
		}
		name := d.Name()
		if d.IsDir() {
			name += "/"
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), name)
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}
	return a.render(paths, b.String())
}

func (a *app) cat(fsys *inodefs.FileSystem, ctx *cli.Context) error {
	argv, err := args(ctx, 1)
	if err != nil {
		return err
	}
	data, err := fsys.View().ReadFile(strings.Trim(argv[0], "/"))
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

func (a *app) run(fsys *inodefs.FileSystem, ctx *cli.Context) error {
	argv, err := args(ctx, 1)
	if err != nil {
		return err
	}

	var r io.Reader
	if argv[0] == "-" {
		r = a.stdin
	} else {
		path, err := a.resolve(argv[0])
		if err != nil {
			return err
		}
		data, err := a.storage.ReadFile(path)
		if err != nil {
			return errs.Wrapf(err, errs.CodeNotFound, "reading script %s", argv[0])
		}
		r = strings.NewReader(string(data))
	}

	session := fsys.NewSession()
	defer session.Close()

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		info, err := inodefs.ExecLine(session, scanner.Text())
		if err != nil {
			return errs.Wrapf(err, platformerrors.GetCode(err), "script line %d", n)
		}
		if info != nil {
			if err := a.render(info, info.String()); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return errs.Wrap(err, errs.CodeInternal, "reading script")
	}
	return nil
}

func (a *app) check(fsys *inodefs.FileSystem, _ *cli.Context) error {
	if err := fsys.Check(); err != nil {
		return err
	}
	return a.render(map[string]string{"status": "ok"}, "ok\n")
}

type statsReport struct {
	inodefs.Stats `yaml:",inline"`
	Digest        string `yaml:"digest"`
}

func (a *app) stats(fsys *inodefs.FileSystem, _ *cli.Context) error {
	d, err := fsys.Digest()
	if err != nil {
		return err
	}
	s := fsys.Stats()
	text := fmt.Sprintf(
		"inodes: %d/%d used\nblocks: %d/%d used\nblock size: %d B\ndigest: %s\n",
		s.InodesUsed, s.InodeCapacity,
		s.BlocksUsed, s.BlockCapacity,
		s.BlockSize,
		d,
	)
	return a.render(statsReport{Stats: s, Digest: d.String()}, text)
}
