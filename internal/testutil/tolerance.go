package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-feat/ndarray"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireChannelMatch fails t unless batched[ch] equals solo elementwise
// within eps. batched must carry one leading batch axis more than solo.
func RequireChannelMatch[T ndarray.Scalar](t *testing.T, batched, solo *ndarray.Array[T], ch int, eps float64) {
	t.Helper()
	view, err := batched.Index(0, ch)
	if err != nil {
		t.Fatalf("channel %d: %v", ch, err)
	}
	got := view.Contiguous().Data()
	want := solo.Data()
	if len(got) != len(want) {
		t.Fatalf("channel %d: length mismatch: got %d, want %d", ch, len(got), len(want))
	}
	for i := range got {
		if d := scalarAbsDiff(got[i], want[i]); d > eps {
			t.Fatalf("channel %d index %d: got %v, want %v (diff %v > eps %v)", ch, i, got[i], want[i], d, eps)
		}
	}
}

// RequireChannelsDiffer fails t if channels a and b of batched are
// elementwise equal within eps: the non-degeneracy guard against
// channel averaging or channel-0-only bugs.
func RequireChannelsDiffer[T ndarray.Scalar](t *testing.T, batched *ndarray.Array[T], a, b int, eps float64) {
	t.Helper()
	va, err := batched.Index(0, a)
	if err != nil {
		t.Fatalf("channel %d: %v", a, err)
	}
	vb, err := batched.Index(0, b)
	if err != nil {
		t.Fatalf("channel %d: %v", b, err)
	}
	da := va.Contiguous().Data()
	db := vb.Contiguous().Data()
	for i := range da {
		if scalarAbsDiff(da[i], db[i]) > eps {
			return
		}
	}
	t.Fatalf("channels %d and %d are elementwise equal within %v", a, b, eps)
}

func scalarAbsDiff[T ndarray.Scalar](a, b T) float64 {
	switch x := any(a).(type) {
	case float64:
		return math.Abs(x - any(b).(float64))
	case complex128:
		d := x - any(b).(complex128)
		return math.Hypot(real(d), imag(d))
	}
	return 0
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
func MaxAbsDiff(a, b []float64) float64 {
	maxDiff := math.Inf(1)
	if len(a) == len(b) {
		maxDiff = 0
		for i := range a {
			if d := math.Abs(a[i] - b[i]); d > maxDiff {
				maxDiff = d
			}
		}
	}
	return maxDiff
}
