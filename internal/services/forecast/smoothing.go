package forecast

import (
	"math"
	"math/big"

	"gonum.org/v1/gonum/stat"
)

const (
	seasonalPeriod      = 7
	minSeasonalPoints   = 2 * seasonalPeriod
	seasonalCorrelation = 0.7
	boundStdMultiplier  = 2
)

// Smooth applies exponential smoothing with the forecaster's alpha.
// Every step is truncated to an integer before feeding the next one, so the
// rounding error accumulates along the series.
func (f *Forecaster) Smooth(values []int64) []int64 {
	if len(values) == 0 {
		return []int64{}
	}

	out := make([]int64, len(values))
	out[0] = values[0]
	for n := 1; n < len(values); n++ {
		// explicit conversions keep the compiler from fusing into an FMA
		weighted := float64(f.alpha * float64(values[n]))
		carried := float64((1 - f.alpha) * float64(out[n-1]))
		out[n] = int64(weighted + carried)
	}
	return out
}

// ConfidenceBounds returns smoothed ± 2σ of the residuals, lower clamped at zero.
func ConfidenceBounds(raw, smoothed []int64) (upper, lower []int64) {
	n := len(raw)
	if len(smoothed) < n {
		n = len(smoothed)
	}

	residuals := make([]int64, n)
	for i := 0; i < n; i++ {
		residuals[i] = raw[i] - smoothed[i]
	}
	sigma := residualSigma(residuals)

	upper = make([]int64, len(smoothed))
	lower = make([]int64, len(smoothed))
	for i, s := range smoothed {
		upper[i] = s + boundStdMultiplier*sigma
		lower[i] = max(0, s-boundStdMultiplier*sigma)
	}
	return upper, lower
}

// residualSigma is the sample standard deviation truncated to an integer,
// |r| for a single residual and 0 for none.
func residualSigma(residuals []int64) int64 {
	switch len(residuals) {
	case 0:
		return 0
	case 1:
		if residuals[0] < 0 {
			return -residuals[0]
		}
		return residuals[0]
	}

	// variance = (nΣx² - (Σx)²) / (n(n-1)), kept exact so that a perfect-square
	// variance never truncates to one below its root.
	n := big.NewInt(int64(len(residuals)))
	sum := new(big.Int)
	sumSq := new(big.Int)
	for _, r := range residuals {
		x := big.NewInt(r)
		sum.Add(sum, x)
		sumSq.Add(sumSq, new(big.Int).Mul(x, x))
	}
	num := new(big.Int).Mul(n, sumSq)
	num.Sub(num, new(big.Int).Mul(sum, sum))
	den := new(big.Int).Mul(n, new(big.Int).Sub(n, big.NewInt(1)))

	variance, _ := new(big.Rat).SetFrac(num, den).Float64()
	return int64(math.Sqrt(variance))
}

// DetectSeasonality reports a weekly period when the lag-7 autocorrelation is
// strong. Series shorter than two weeks are never tested.
func DetectSeasonality(values []int64) (int, bool) {
	if len(values) < minSeasonalPoints {
		return 0, false
	}

	head := make([]float64, len(values)-seasonalPeriod)
	tail := make([]float64, len(values)-seasonalPeriod)
	for i := range head {
		head[i] = float64(values[i])
		tail[i] = float64(values[i+seasonalPeriod])
	}

	// constant input yields NaN, which never passes the threshold
	r := stat.Correlation(tail, head, nil)
	if math.IsNaN(r) || math.Abs(r) <= seasonalCorrelation {
		return 0, false
	}
	return seasonalPeriod, true
}
