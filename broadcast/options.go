package broadcast

import "runtime"

type config struct {
	workers int
}

// Option adjusts how Apply schedules per-slice work.
type Option func(*config)

// WithParallel computes batch slices concurrently on up to n workers.
// n <= 0 selects GOMAXPROCS. The default is sequential execution.
func WithParallel(n int) Option {
	return func(cfg *config) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		cfg.workers = n
	}
}

func applyOptions(opts []Option) config {
	cfg := config{workers: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
