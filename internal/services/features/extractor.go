package features

import (
    "math"
    "sort"
)

// ComputeLogReturns computes log returns r_t = ln(P_t / P_{t-1}).
// It returns a slice of length len(prices)-1, or nil if insufficient data.
// Non-positive prices yield a zero return.
func ComputeLogReturns(prices []float64) []float64 {
    if len(prices) < 2 {
        return nil
    }
    out := make([]float64, 0, len(prices)-1)
    for i := 1; i < len(prices); i++ {
        prev := prices[i-1]
        cur := prices[i]
        if prev <= 0 || cur <= 0 {
            out = append(out, 0)
            continue
        }
        out = append(out, math.Log(cur/prev))
    }
    return out
}

// StdDev is the population standard deviation (ddof=0) of xs. Zero for fewer than two values.
func StdDev(xs []float64) float64 {
    if len(xs) < 2 {
        return 0
    }
    n := float64(len(xs))
    mean := Sum(xs) / n
    ss := 0.0
    for _, x := range xs {
        d := x - mean
        ss += d * d
    }
    return math.Sqrt(ss / n)
}

// Sum returns the arithmetic sum of xs.
func Sum(xs []float64) float64 {
    s := 0.0
    for _, x := range xs {
        s += x
    }
    return s
}

// MedianAbs returns the median of |x| over xs, or 0 for an empty slice.
func MedianAbs(xs []float64) float64 {
    if len(xs) == 0 {
        return 0
    }
    abs := make([]float64, len(xs))
    for i, x := range xs {
        abs[i] = math.Abs(x)
    }
    sort.Float64s(abs)
    mid := len(abs) / 2
    if len(abs)%2 == 1 {
        return abs[mid]
    }
    return (abs[mid-1] + abs[mid]) / 2
}

// Tail returns the last n elements of xs (all of them if n >= len(xs)).
func Tail(xs []float64, n int) []float64 {
    if n >= len(xs) || n < 0 {
        return xs
    }
    return xs[len(xs)-n:]
}
