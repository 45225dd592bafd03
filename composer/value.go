package composer

import (
	"fmt"

	apperrors "github.com/plasmakit/imascompose/errors"
)

// Kind enumerates the variant forms a Value can take.
type Kind int

const (
	// KindNil is the zero Value.
	KindNil Kind = iota
	// KindScalar is a single numeric value.
	KindScalar
	// KindString is a single string value.
	KindString
	// KindStrings is a slice of strings (e.g., channel names).
	KindStrings
	// KindDense is a fixed-shape numeric array, row-major.
	KindDense
	// KindRagged is a variable-length sequence of numeric rows.
	KindRagged
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindString:
		return "string"
	case KindStrings:
		return "strings"
	case KindDense:
		return "dense"
	case KindRagged:
		return "ragged"
	default:
		return "nil"
	}
}

// Dense is a fixed-shape numeric array stored row-major.
type Dense struct {
	Shape []int
	Data  []float64
}

// At returns the element at row i, column j of a 2-D dense array.
func (d *Dense) At(i, j int) float64 {
	return d.Data[i*d.Shape[1]+j]
}

// Row returns row i of a 2-D dense array as a slice view.
func (d *Dense) Row(i int) []float64 {
	cols := d.Shape[1]
	return d.Data[i*cols : (i+1)*cols]
}

// Ragged is a variable-length sequence of numeric rows with explicit
// per-row lengths (e.g., per-time-slice boundary outlines).
type Ragged struct {
	Rows [][]float64
}

// Value is the explicit variant type for fetched data and composed outputs.
// Compose functions return Values; the caller's transport stores Values in
// the Cache keyed by Requirement.
type Value struct {
	kind   Kind
	scalar float64
	str    string
	strs   []string
	dense  *Dense
	ragged *Ragged
}

// Scalar wraps a single numeric value.
func Scalar(v float64) Value { return Value{kind: KindScalar, scalar: v} }

// String wraps a single string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Strings wraps a slice of strings.
func Strings(ss []string) Value { return Value{kind: KindStrings, strs: ss} }

// Vector wraps a 1-D numeric array.
func Vector(data []float64) Value {
	return Value{kind: KindDense, dense: &Dense{Shape: []int{len(data)}, Data: data}}
}

// Matrix wraps a 2-D numeric array stored row-major. len(data) must equal
// rows*cols.
func Matrix(rows, cols int, data []float64) Value {
	return Value{kind: KindDense, dense: &Dense{Shape: []int{rows, cols}, Data: data}}
}

// NewRagged wraps a variable-length sequence of rows.
func NewRagged(rows [][]float64) Value {
	return Value{kind: KindRagged, ragged: &Ragged{Rows: rows}}
}

// Kind returns the variant kind of the value.
func (v Value) Kind() Kind { return v.kind }

// Float returns the scalar payload.
func (v Value) Float() (float64, error) {
	if v.kind != KindScalar {
		return 0, apperrors.ValueType(KindScalar.String(), v.kind.String())
	}
	return v.scalar, nil
}

// Int returns the scalar payload truncated to an integer (e.g., a fetched
// channel count).
func (v Value) Int() (int, error) {
	f, err := v.Float()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Str returns the string payload.
func (v Value) Str() (string, error) {
	if v.kind != KindString {
		return "", apperrors.ValueType(KindString.String(), v.kind.String())
	}
	return v.str, nil
}

// StringSlice returns the string-slice payload.
func (v Value) StringSlice() ([]string, error) {
	if v.kind != KindStrings {
		return nil, apperrors.ValueType(KindStrings.String(), v.kind.String())
	}
	return v.strs, nil
}

// Dense returns the dense-array payload.
func (v Value) Dense() (*Dense, error) {
	if v.kind != KindDense {
		return nil, apperrors.ValueType(KindDense.String(), v.kind.String())
	}
	return v.dense, nil
}

// Vector1D returns the data of a 1-D dense payload.
func (v Value) Vector1D() ([]float64, error) {
	d, err := v.Dense()
	if err != nil {
		return nil, err
	}
	if len(d.Shape) != 1 {
		return nil, apperrors.ValueType("1-d dense", fmt.Sprintf("%d-d dense", len(d.Shape)))
	}
	return d.Data, nil
}

// Ragged returns the ragged-array payload.
func (v Value) Ragged() (*Ragged, error) {
	if v.kind != KindRagged {
		return nil, apperrors.ValueType(KindRagged.String(), v.kind.String())
	}
	return v.ragged, nil
}
