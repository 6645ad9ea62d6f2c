package inodefs

import (
	"io"
	"log/slog"

	"github.com/jmgilman/go/inodefs/internal/logging"
	"github.com/jmgilman/go/inodefs/internal/tree"
)

// Option configures a FileSystem.
type Option func(*config)

type config struct {
	blockCapacity int
	blockSize     int
	logger        *logging.Logger
	output        io.Writer
}

func newConfig(opts []Option) config {
	cfg := config{
		blockSize: tree.DefaultBlockSize,
		logger:    logging.NewNopLogger(),
		output:    io.Discard,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithBlockCapacity sets the number of blocks when it should differ from the
// number of inodes. Ignored by Load and Decode, which take capacities from
// the snapshot.
//
// Example:
//
//	fsys, _ := inodefs.Format(64, inodefs.WithBlockCapacity(4096))
func WithBlockCapacity(n int) Option {
	return func(c *config) {
		c.blockCapacity = n
	}
}

// WithBlockSize sets the number of content bytes per block (default 1024).
// Load and Decode use n only for snapshots holding no file content; other
// snapshots keep the block size their content was written with.
func WithBlockSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// WithLogger sets the slog logger used for operation records. Successful
// mutations are logged at debug level, failures at warn level. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = logging.FromSlog(l)
		}
	}
}

// WithOutput sets the sink that report operations write their text
// rendering to (default io.Discard).
//
// Example:
//
//	fsys, _ := inodefs.Format(1024, inodefs.WithOutput(os.Stdout))
//	fsys.Info() // prints the root directory report
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}
