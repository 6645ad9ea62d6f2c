package main

import (
	"fmt"
	"io"
	"path/filepath"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/inodefs"
	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/logging"
)

// app carries what every command needs: configuration, the storage holding
// snapshots and the standard streams.
type app struct {
	cfg     Config
	storage core.FS
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	// resolvePath turns a command line path into the form storage expects.
	// The local provider is rooted at "/" and needs absolute paths.
	resolvePath func(string) (string, error)
}

func (a *app) resolve(path string) (string, error) {
	if a.resolvePath == nil {
		return path, nil
	}
	resolved, err := a.resolvePath(path)
	if err != nil {
		return "", errs.Wrapf(err, errs.CodeInvalidInput, "resolving %s", path)
	}
	return resolved, nil
}

// snapshot returns the base name, without suffix, of the configured snapshot.
func (a *app) snapshot() (string, error) {
	dir, err := a.resolve(a.cfg.Dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, a.cfg.Snapshot), nil
}

func (a *app) options() []inodefs.Option {
	lc := logging.DefaultLogConfig()
	lc.Output = a.stderr
	if level, err := logging.ParseLogLevel(a.cfg.LogLevel); err == nil {
		lc.Level = level
	}
	return []inodefs.Option{
		inodefs.WithLogger(logging.NewSlog(lc)),
		inodefs.WithBlockSize(a.cfg.BlockSize),
	}
}

// withFS loads the snapshot, runs f and saves the snapshot again when
// mutates is set and f succeeded.
func (a *app) withFS(mutates bool, f func(*inodefs.FileSystem, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		base, err := a.snapshot()
		if err != nil {
			return err
		}
		fsys, err := inodefs.Load(a.storage, base, a.options()...)
		if err != nil {
			return err
		}
		if err := f(fsys, ctx); err != nil {
			return err
		}
		if mutates {
			return fsys.Save(a.storage, base)
		}
		return nil
	}
}

// render writes v as YAML, or text as is, depending on the output format.
func (a *app) render(v any, text string) error {
	if a.cfg.Output == outputYAML {
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errs.Wrap(err, errs.CodeInternal, "encoding YAML output")
		}
		return enc.Close()
	}
	_, err := io.WriteString(a.stdout, text)
	return err
}

// fail reports err on stderr in the configured output format.
func (a *app) fail(err error) {
	if a.cfg.Output == outputYAML {
		out, merr := yaml.Marshal(map[string]any{"error": platformerrors.ToJSON(err)})
		if merr == nil {
			_, _ = a.stderr.Write(out)
			return
		}
	}
	fmt.Fprintf(a.stderr, "inodefs: %v\n", err)
}

// applyFlags copies explicitly set global flags over the environment
// configuration.
func (a *app) applyFlags(ctx *cli.Context) error {
	if ctx.IsSet("snapshot") {
		a.cfg.Snapshot = ctx.String("snapshot")
	}
	if ctx.IsSet("dir") {
		a.cfg.Dir = ctx.String("dir")
	}
	if ctx.IsSet("block-size") {
		a.cfg.BlockSize = ctx.Int("block-size")
	}
	if ctx.IsSet("log-level") {
		a.cfg.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("output") {
		a.cfg.Output = ctx.String("output")
	}
	return a.cfg.Validate()
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:      "inodefs",
		Usage:     "manipulate in-memory inode filesystem snapshots",
		Reader:    a.stdin,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "snapshot",
				Aliases: []string{"s"},
				Usage:   "snapshot base name; the .filesystem suffix is appended",
				Value:   a.cfg.Snapshot,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "directory holding the snapshot",
				Value: a.cfg.Dir,
			},
			&cli.IntFlag{
				Name:  "block-size",
				Usage: "bytes per block for format; snapshots with files keep their own",
				Value: a.cfg.BlockSize,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: a.cfg.LogLevel,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "report format: text or yaml",
				Value:   a.cfg.Output,
			},
		},
		Before:   a.applyFlags,
		Commands: a.commands(),
	}
}

// args returns exactly n positional arguments.
func args(ctx *cli.Context, n int) ([]string, error) {
	if ctx.NArg() != n {
		return nil, errs.Newf(
			errs.CodeInvalidInput,
			"%s expects %d argument(s), got %d",
			ctx.Command.Name, n, ctx.NArg(),
		)
	}
	return ctx.Args().Slice(), nil
}
