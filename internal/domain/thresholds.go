package domain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ThresholdStrategy selects how map color breaks are computed.
type ThresholdStrategy string

const (
	StrategyProportional ThresholdStrategy = "proportional"
	StrategyQuantile     ThresholdStrategy = "quantile"
)

// ParseThresholdStrategy validates a strategy name. Empty means proportional.
func ParseThresholdStrategy(s string) (ThresholdStrategy, error) {
	switch ThresholdStrategy(s) {
	case "", StrategyProportional:
		return StrategyProportional, nil
	case StrategyQuantile:
		return StrategyQuantile, nil
	default:
		return "", fmt.Errorf("unknown threshold strategy %q", s)
	}
}

// Palette holds the nine map colors: white for zero, then eight increasingly
// dark reds.
var Palette = []string{
	"#ffffff",
	"#fee5d9",
	"#fcbba1",
	"#fc9272",
	"#fb6a4a",
	"#ef3b2c",
	"#cb181d",
	"#a50f15",
	"#67000d",
}

// colorClasses is the number of non-zero buckets in the palette.
const colorClasses = 8

// proportions of the maximum used by the proportional strategy.
var proportions = []float64{0, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0}

// DefaultThresholds is the legend ladder used when nothing has funding.
var DefaultThresholds = []float64{0, 100, 10_000, 100_000, 1e6, 1e7, 1e8, 1e9, 5e9}

// ComputeThresholds derives color breaks from region aggregates.
func ComputeThresholds(agg Aggregation, strategy ThresholdStrategy) []float64 {
	return Breaks(agg.Values(), strategy)
}

// Breaks returns strictly ascending break points starting at 0 and ending at
// the maximum value. With fewer unique positive values than color classes the
// values themselves are the breaks.
func Breaks(values []float64, strategy ThresholdStrategy) []float64 {
	unique := uniquePositive(values)
	if len(unique) == 0 {
		out := make([]float64, len(DefaultThresholds))
		copy(out, DefaultThresholds)
		return out
	}
	if len(unique) < colorClasses {
		return append([]float64{0}, unique...)
	}

	maxVal := floats.Max(unique)
	var breaks []float64
	switch strategy {
	case StrategyQuantile:
		breaks = quantileBreaks(unique, maxVal)
	default:
		breaks = proportionalBreaks(maxVal)
	}
	return dedupeSorted(breaks)
}

func proportionalBreaks(maxVal float64) []float64 {
	breaks := make([]float64, 0, len(proportions))
	for _, p := range proportions {
		switch p {
		case 0:
			breaks = append(breaks, 0)
		case 1:
			breaks = append(breaks, maxVal)
		default:
			if v := niceCeil(p * maxVal); v < maxVal {
				breaks = append(breaks, v)
			}
		}
	}
	return breaks
}

// quantileBreaks expects sorted unique positive values.
func quantileBreaks(sorted []float64, maxVal float64) []float64 {
	breaks := []float64{0}
	for k := 1; k < colorClasses; k++ {
		q := stat.Quantile(float64(k)/colorClasses, stat.Empirical, sorted, nil)
		if q < maxVal {
			breaks = append(breaks, q)
		}
	}
	return append(breaks, maxVal)
}

// niceCeil rounds x up to one significant digit, e.g. 123 -> 200, 0.042 -> 0.05.
func niceCeil(x float64) float64 {
	if x <= 0 {
		return 0
	}
	step := math.Pow(10, math.Floor(math.Log10(x)))
	// Tolerance keeps exact multiples (3.0000000001 after division) from jumping a step.
	return math.Ceil(x/step-1e-9) * step
}

func uniquePositive(values []float64) []float64 {
	pos := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			pos = append(pos, v)
		}
	}
	return dedupeSorted(pos)
}

func dedupeSorted(values []float64) []float64 {
	sort.Float64s(values)
	out := values[:0]
	for i, v := range values {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// ColorScale pairs ascending breaks with palette colors.
type ColorScale struct {
	Breaks []float64 `json:"breaks"`
	Colors []string  `json:"colors"`
}

// NewColorScale spreads the palette across breaks. The first break always
// gets white and the last the darkest color.
func NewColorScale(breaks []float64) ColorScale {
	colors := make([]string, len(breaks))
	n := len(breaks)
	for i := range breaks {
		switch {
		case i == 0:
			colors[i] = Palette[0]
		case n == 2:
			colors[i] = Palette[colorClasses]
		default:
			idx := 1 + int(math.Round(float64(i-1)*float64(colorClasses-1)/float64(n-2)))
			colors[i] = Palette[idx]
		}
	}
	return ColorScale{Breaks: breaks, Colors: colors}
}

// ColorFor returns the bucket color for a funding amount: zero is white,
// otherwise the color of the first break at or above v.
func (c ColorScale) ColorFor(v float64) string {
	if len(c.Colors) == 0 {
		return Palette[0]
	}
	if v <= 0 {
		return c.Colors[0]
	}
	for i := 1; i < len(c.Breaks); i++ {
		if v <= c.Breaks[i] {
			return c.Colors[i]
		}
	}
	return c.Colors[len(c.Colors)-1]
}
