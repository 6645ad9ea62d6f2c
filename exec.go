package inodefs

import (
	"strconv"
	"strings"

	"github.com/jmgilman/go/inodefs/internal/errs"
)

// DefaultSize is the block count used when a create command gives none.
const DefaultSize = 1

type command struct {
	minArgs, maxArgs int
	run              func(s *Session, args []string) (*Info, error)
}

func (c command) usage(name string) error {
	if c.minArgs == c.maxArgs {
		return errs.Newf(errs.CodeInvalidInput, "%s takes %d argument(s)", name, c.minArgs)
	}
	return errs.Newf(errs.CodeInvalidInput, "%s takes %d to %d arguments", name, c.minArgs, c.maxArgs)
}

func parseSize(args []string) (uint64, error) {
	if len(args) < 2 {
		return DefaultSize, nil
	}
	n, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return 0, errs.Wrapf(err, errs.CodeInvalidInput, "invalid size %q", args[1])
	}
	return n, nil
}

func report(info Info, err error) (*Info, error) {
	if err != nil {
		return nil, err
	}
	return &info, nil
}

var commands = map[string]command{
	"make_file": {1, 2, func(s *Session, args []string) (*Info, error) {
		size, err := parseSize(args)
		if err != nil {
			return nil, err
		}
		return nil, s.MakeFile(args[0], size)
	}},
	"make_directory": {1, 2, func(s *Session, args []string) (*Info, error) {
		size, err := parseSize(args)
		if err != nil {
			return nil, err
		}
		return nil, s.MakeDirectory(args[0], size)
	}},
	"delete_file": {1, 1, func(s *Session, args []string) (*Info, error) {
		return nil, s.DeleteFile(args[0])
	}},
	"delete_directory": {1, 1, func(s *Session, args []string) (*Info, error) {
		return nil, s.DeleteDirectory(args[0])
	}},
	"copy_file": {2, 2, func(s *Session, args []string) (*Info, error) {
		return nil, s.CopyFile(args[0], args[1])
	}},
	"copy_file_shallow": {2, 2, func(s *Session, args []string) (*Info, error) {
		return nil, s.CopyFileShallow(args[0], args[1])
	}},
	"move_file": {2, 2, func(s *Session, args []string) (*Info, error) {
		return nil, s.MoveFile(args[0], args[1])
	}},
	"edit_file": {2, 2, func(s *Session, args []string) (*Info, error) {
		return nil, s.EditFile(args[0], args[1])
	}},
	"change_directory": {1, 1, func(s *Session, args []string) (*Info, error) {
		return nil, s.ChangeDirectory(args[0])
	}},
	"file_info": {1, 1, func(s *Session, args []string) (*Info, error) {
		return report(s.FileInfo(args[0]))
	}},
	"directory_info": {0, 0, func(s *Session, _ []string) (*Info, error) {
		return report(s.DirectoryInfo())
	}},
	"info": {0, 0, func(s *Session, _ []string) (*Info, error) {
		return report(s.Info())
	}},
}

// aliases maps short operation names to their long forms.
var aliases = map[string]string{
	"mk":    "make_file",
	"mkdir": "make_directory",
	"rm":    "delete_file",
	"rmdir": "delete_directory",
	"cp":    "copy_file",
	"ln":    "copy_file_shallow",
	"mv":    "move_file",
	"ed":    "edit_file",
	"go":    "change_directory",
	"sz":    "file_info",
	"szdir": "directory_info",
	"szfs":  "info",
}

// Exec runs the operation named op on s. Operations accept their long name
// (make_file) or short name (mk). Report operations return their report;
// all others return a nil *Info.
//
// Example:
//
//	_, err := inodefs.Exec(sess, "mk", "notes", "3")
func Exec(s *Session, op string, args ...string) (*Info, error) {
	name := op
	if long, ok := aliases[op]; ok {
		name = long
	}
	cmd, ok := commands[name]
	if !ok {
		return nil, errs.Newf(errs.CodeNotImplemented, "unknown operation %q", op)
	}
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return nil, cmd.usage(op)
	}
	return cmd.run(s, args)
}

// ExecLine splits line on whitespace and runs it with Exec. Blank lines and
// lines starting with '#' do nothing.
func ExecLine(s *Session, line string) (*Info, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil, nil
	}
	return Exec(s, fields[0], fields[1:]...)
}
