package ids

import (
	"fmt"
	"math"
	"sort"

	"github.com/plasmakit/imascompose/composer"
)

func deg2rad(deg float64) float64 { return deg * math.Pi / 180 }

// scale returns a copy of data with every element multiplied by factor.
func scale(data []float64, factor float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v * factor
	}
	return out
}

// tileRows repeats row n times into a row-major (n, len(row)) block.
func tileRows(row []float64, n int) []float64 {
	out := make([]float64, 0, n*len(row))
	for i := 0; i < n; i++ {
		out = append(out, row...)
	}
	return out
}

// tileCols repeats each element of col across n columns, row-major
// (len(col), n).
func tileCols(col []float64, n int) []float64 {
	out := make([]float64, 0, len(col)*n)
	for _, v := range col {
		for j := 0; j < n; j++ {
			out = append(out, v)
		}
	}
	return out
}

// uniqueSorted returns the ascending distinct values of data.
func uniqueSorted(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// nearestIndex returns the index of the element of xs closest to x.
func nearestIndex(xs []float64, x float64) int {
	best := 0
	bestDist := math.Abs(xs[0] - x)
	for i, v := range xs[1:] {
		if d := math.Abs(v - x); d < bestDist {
			best, bestDist = i+1, d
		}
	}
	return best
}

// interpLinear evaluates piecewise-linear interpolation of (xs, ys) at each
// query point. xs must be ascending; query points outside its range yield
// NaN.
func interpLinear(xs, ys, query []float64) []float64 {
	out := make([]float64, len(query))
	for i, q := range query {
		out[i] = interpAt(xs, ys, q)
	}
	return out
}

func interpAt(xs, ys []float64, q float64) float64 {
	n := len(xs)
	if n == 0 || q < xs[0] || q > xs[n-1] {
		return math.NaN()
	}
	j := sort.SearchFloat64s(xs, q)
	if j < n && xs[j] == q {
		return ys[j]
	}
	x0, x1 := xs[j-1], xs[j]
	y0, y1 := ys[j-1], ys[j]
	return y0 + (y1-y0)*(q-x0)/(x1-x0)
}

// maskZeros returns a copy of data with zero entries replaced by NaN. EFIT
// writes zeros for time slices where a quantity does not exist.
func maskZeros(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if v == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = v
		}
	}
	return out
}

// columnStack interleaves equal-length columns into a row-major
// (len(col), len(cols)) block.
func columnStack(cols ...[]float64) []float64 {
	if len(cols) == 0 {
		return nil
	}
	n := len(cols[0])
	out := make([]float64, 0, n*len(cols))
	for i := 0; i < n; i++ {
		for _, c := range cols {
			out = append(out, c[i])
		}
	}
	return out
}

// dense2D returns the dense payload of v, requiring exactly two dimensions.
func dense2D(v composer.Value) (*composer.Dense, error) {
	d, err := v.Dense()
	if err != nil {
		return nil, err
	}
	if len(d.Shape) != 2 {
		return nil, fmt.Errorf("expected 2-d array, got %d-d", len(d.Shape))
	}
	return d, nil
}
