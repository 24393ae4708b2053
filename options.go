package multipart

import "go.uber.org/zap"

// defaultMaxHeaderSize and defaultMaxFileSize match spec.md §6's Options.
const (
	defaultMaxHeaderSize = 8192
	defaultMaxFileSize   = 1<<31 - 1
	defaultChunkSize     = 32 * 1024
)

type config struct {
	maxHeaderSize int
	maxFileSize   int64
	chunkSize     int
	logger        *zap.Logger
	metrics       *Metrics
}

func defaultConfig() config {
	return config{
		maxHeaderSize: defaultMaxHeaderSize,
		maxFileSize:   defaultMaxFileSize,
		chunkSize:     defaultChunkSize,
		logger:        zap.NewNop(),
	}
}

// Option configures a Parse call. Per-session, functional-option style,
// matching the {maxHeaderSize, maxFileSize} options struct spec.md §6
// names while staying idiomatic Go.
type Option func(*config)

// WithMaxHeaderSize overrides the default 8192-byte header block limit.
func WithMaxHeaderSize(n int) Option {
	return func(c *config) { c.maxHeaderSize = n }
}

// WithMaxFileSize overrides the default 2^31-1 byte per-part payload
// limit.
func WithMaxFileSize(n int64) Option {
	return func(c *config) { c.maxFileSize = n }
}

// WithChunkSize sets the chunk size ParseReader uses when it adapts its
// io.Reader (see NewReaderSource). Parse itself ignores it: a Request
// supplies its own ChunkSource, and FromHTTPRequest takes its chunk size
// as an argument. Defaults to 32KiB.
func WithChunkSize(n int) Option {
	return func(c *config) { c.chunkSize = n }
}

// WithLogger injects a *zap.Logger for the session's structured debug
// and warning logs (state transitions, malformed header lines). Defaults
// to zap.NewNop() — a library must never own a global, process-wide
// logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithMetrics attaches a Metrics collector created by NewMetrics to the
// session.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}
