package memory

// DefaultLimit caps each in-memory store when no limit is given.
const DefaultLimit = 10000

// Option configures an in-memory store.
type Option func(*options)

type options struct {
	limit int
}

// WithLimit keeps at most n entries, evicting the oldest inserted first.
// n <= 0 disables the cap.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

func buildOptions(opts []Option) options {
	o := options{limit: DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fifo tracks insertion order for eviction.
type fifo struct {
	limit int
	keys  []string
}

// push records key and returns the keys to evict.
func (f *fifo) push(key string) []string {
	f.keys = append(f.keys, key)
	if f.limit <= 0 || len(f.keys) <= f.limit {
		return nil
	}
	n := len(f.keys) - f.limit
	evicted := f.keys[:n:n]
	f.keys = f.keys[n:]
	return evicted
}
