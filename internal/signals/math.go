package signals

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean, NaN for an empty slice.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev returns the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// median returns the middle value, NaN for an empty slice.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// movingAverage returns the mean of the last n values, NaN when fewer
// than n values exist.
func movingAverage(xs []float64, n int) float64 {
	if len(xs) < n || n <= 0 {
		return math.NaN()
	}
	return mean(xs[len(xs)-n:])
}

// dailyReturns converts a close series into simple daily returns.
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// beta returns cov(asset, index) / var(index) over the paired tail of
// the two return series. NaN when the overlap is too short or the index
// variance is zero.
func beta(asset, index []float64) float64 {
	n := len(asset)
	if len(index) < n {
		n = len(index)
	}
	if n < 30 {
		return math.NaN()
	}
	a := asset[len(asset)-n:]
	idx := index[len(index)-n:]

	ma, mi := mean(a), mean(idx)
	var cov, varIdx float64
	for i := 0; i < n; i++ {
		cov += (a[i] - ma) * (idx[i] - mi)
		varIdx += (idx[i] - mi) * (idx[i] - mi)
	}
	if varIdx == 0 {
		return math.NaN()
	}
	return cov / varIdx
}
