// Command inodefs manipulates inode filesystem snapshots stored on the local
// disk.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmgilman/go/fs/billy"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := &app{
		cfg:         cfg,
		storage:     billy.NewLocal(),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		resolvePath: filepath.Abs,
	}
	if err := a.cli().Run(os.Args); err != nil {
		a.fail(err)
		os.Exit(1)
	}
}
