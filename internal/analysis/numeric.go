package analysis

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// round rounds v to the given number of decimal places. Rounding is done on
// the exact binary value of v with ties to even, so 0.125 -> 0.12 and
// 200.25 -> 200.2.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return exact(v).RoundBank(places).InexactFloat64()
}

// roundInt rounds v to the nearest integer, ties to even.
func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(exact(v).RoundBank(0).IntPart())
}

// exact returns the full decimal expansion of v, not its shortest form
func exact(v float64) decimal.Decimal {
	_, exp := math.Frexp(v)
	digits := max(0, 53-exp)
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', digits, 64))
	if err != nil {
		return decimal.NewFromFloat(v)
	}
	return d
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
