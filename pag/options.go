package pag

import "github.com/li1/pagstream/emit"

// Config holds the shared, per-stage configuration every pipeline component
// accepts, following the teacher's functional-options convention.
type Config struct {
	Emitter    emit.Emitter
	Metrics    *Metrics
	BufferSize int

	// Partitions is the number of shards RemoteEdges splits its join state
	// across, each keyed deterministically by a send/recv key's source so
	// both halves of a pair land on the same shard. Ignored by stages other
	// than RemoteEdges.
	Partitions int
}

// Option configures a pipeline stage.
type Option func(*Config)

// WithEmitter sets the Emitter a stage reports telemetry to. Defaults to a
// NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(c *Config) { c.Emitter = e }
}

// WithMetrics attaches a Metrics collector. nil (the default) disables
// metrics collection.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithBufferSize sets the output channel's buffer capacity. Defaults to 64.
func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithPartitions sets RemoteEdges' shard count. Defaults to 1.
func WithPartitions(n int) Option {
	return func(c *Config) { c.Partitions = n }
}

func newConfig(opts ...Option) *Config {
	c := &Config{
		Emitter:    emit.NewNullEmitter(),
		BufferSize: 64,
		Partitions: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
