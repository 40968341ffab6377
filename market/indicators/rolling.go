package indicators

// RollingMean returns the mean of the last min(period, i+1) values at each i.
// Each window is summed afresh, oldest first, so the mean of non-negative
// values is never negative.
func RollingMean(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		out[i] = mean(xs[lo : i+1])
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// RollingMin returns the minimum of the adaptive window at each index.
func RollingMin(xs []float64, period int) []float64 {
	return rollingExtreme(xs, period, func(a, b float64) bool { return a <= b })
}

// RollingMax returns the maximum of the adaptive window at each index.
func RollingMax(xs []float64, period int) []float64 {
	return rollingExtreme(xs, period, func(a, b float64) bool { return a >= b })
}

// rollingExtreme keeps a monotonic deque of indices; the front is always the
// extreme of the current window.
func rollingExtreme(xs []float64, period int, keep func(a, b float64) bool) []float64 {
	out := make([]float64, len(xs))
	dq := make([]int, 0, period)
	for i, x := range xs {
		for len(dq) > 0 && keep(x, xs[dq[len(dq)-1]]) {
			dq = dq[:len(dq)-1]
		}
		dq = append(dq, i)
		if dq[0] <= i-period {
			dq = dq[1:]
		}
		out[i] = xs[dq[0]]
	}
	return out
}
