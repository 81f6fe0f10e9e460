// Package ndarray provides a minimal N-dimensional array container for
// real and complex sample data.
//
// Arrays are row-major views over a flat backing slice. The package
// intentionally implements no signal processing itself; it supplies the
// shape bookkeeping (axis normalization, batch/operating axis splits,
// index-space iteration) that the broadcasting and synchronization
// layers are built on.
package ndarray
