package stft

import (
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// planPools caches FFT plans per transform size so repeated analysis
// calls reuse them instead of re-planning. A plan carries scratch state
// and must not be shared between goroutines, so each size holds a pool
// rather than a single plan.
var planPools sync.Map // int -> *sync.Pool

func acquirePlan(nfft int) (*algofft.Plan[complex128], error) {
	p, _ := planPools.LoadOrStore(nfft, &sync.Pool{})
	if plan, ok := p.(*sync.Pool).Get().(*algofft.Plan[complex128]); ok {
		return plan, nil
	}
	return algofft.NewPlan64(nfft)
}

func releasePlan(nfft int, plan *algofft.Plan[complex128]) {
	if p, ok := planPools.Load(nfft); ok {
		p.(*sync.Pool).Put(plan)
	}
}
