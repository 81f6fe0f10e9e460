// Package nnls solves non-negative least squares problems with projected
// gradient descent.
package nnls

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-feat/broadcast"
	"github.com/cwbudde/algo-feat/ndarray"
)

var errIterations = errors.New("nnls: iteration count must be positive")

// Config tunes the solver.
type Config struct {
	// MaxIter bounds the gradient iterations.
	MaxIter int
	// Tolerance stops early once the largest coordinate update falls
	// below it.
	Tolerance float64
	// Parallel is forwarded to the batch adapter.
	Parallel int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		MaxIter:   200,
		Tolerance: 1e-8,
	}
}

// WithMaxIter bounds the gradient iterations.
func WithMaxIter(n int) Option {
	return func(c *Config) { c.MaxIter = n }
}

// WithTolerance sets the early-stop threshold on coordinate updates.
func WithTolerance(tol float64) Option {
	return func(c *Config) { c.Tolerance = tol }
}

// WithParallel forwards a worker count to the batch adapter.
func WithParallel(workers int) Option {
	return func(c *Config) { c.Parallel = workers }
}

// Solve finds X >= 0 minimizing ||A X - B|| for each [m, t] slab of
// B [..., m, t], producing [..., n, t] with n the column count of A.
// Projected gradient steps use 1/sigma_max(A)^2 as the step size.
func Solve(a *mat.Dense, b *ndarray.Array[float64], opts ...Option) (*ndarray.Array[float64], error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxIter < 1 {
		return nil, errIterations
	}
	if b.Rank() < 2 {
		return nil, ndarray.ErrInvalidAxis
	}
	m, _ := a.Dims()
	if rows := b.Shape()[b.Rank()-2]; rows != m {
		return nil, fmt.Errorf("nnls: matrix has %d rows, target has %d: %w",
			m, rows, broadcast.ErrShapeMismatch)
	}
	step, err := stepSize(a)
	if err != nil {
		return nil, err
	}

	var adapterOpts []broadcast.Option
	if cfg.Parallel > 1 {
		adapterOpts = append(adapterOpts, broadcast.WithParallel(cfg.Parallel))
	}
	return broadcast.Apply(b, 2, func(slab *ndarray.Array[float64]) (*ndarray.Array[float64], error) {
		sh := slab.Shape()
		rhs := mat.NewDense(sh[0], sh[1], slab.Data())
		x := solveDense(a, rhs, step, cfg.MaxIter, cfg.Tolerance)
		_, n := a.Dims()
		return ndarray.FromSlice(x.RawMatrix().Data, n, sh[1])
	}, adapterOpts...)
}

// SolveDense is Solve for a single dense right-hand side.
func SolveDense(a, b *mat.Dense, opts ...Option) (*mat.Dense, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxIter < 1 {
		return nil, errIterations
	}
	am, _ := a.Dims()
	bm, _ := b.Dims()
	if am != bm {
		return nil, fmt.Errorf("nnls: matrix has %d rows, target has %d: %w",
			am, bm, broadcast.ErrShapeMismatch)
	}
	step, err := stepSize(a)
	if err != nil {
		return nil, err
	}
	return solveDense(a, b, step, cfg.MaxIter, cfg.Tolerance), nil
}

// stepSize returns 1/sigma_max^2, the largest step that keeps projected
// gradient descent on ||AX-B|| stable.
func stepSize(a *mat.Dense) (float64, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return 0, errors.New("nnls: singular value decomposition failed")
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] <= 0 {
		return 0, errors.New("nnls: matrix has no positive singular values")
	}
	return 1 / (values[0] * values[0]), nil
}

func solveDense(a, b *mat.Dense, step float64, maxIter int, tol float64) *mat.Dense {
	_, n := a.Dims()
	_, t := b.Dims()

	x := mat.NewDense(n, t, nil)
	var residual, grad mat.Dense
	for iter := 0; iter < maxIter; iter++ {
		residual.Mul(a, x)
		residual.Sub(&residual, b)
		grad.Mul(a.T(), &residual)

		maxDelta := 0.0
		for i := 0; i < n; i++ {
			for j := 0; j < t; j++ {
				v := x.At(i, j) - step*grad.At(i, j)
				if v < 0 {
					v = 0
				}
				if d := v - x.At(i, j); d > maxDelta {
					maxDelta = d
				} else if -d > maxDelta {
					maxDelta = -d
				}
				x.Set(i, j, v)
			}
		}
		if maxDelta < tol {
			break
		}
	}
	return x
}
