package statepoint

import (
	"fmt"
	"slices"
)

// NDArray is a dense row-major array with a label per axis.
type NDArray struct {
	Shape []int
	Axes  []string
	Data  []float64
}

func (a NDArray) strides() []int {
	st := make([]int, len(a.Shape))
	n := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		st[i] = n
		n *= a.Shape[i]
	}
	return st
}

// At returns the element at idx. It panics when idx is out of range.
func (a NDArray) At(idx ...int) float64 {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("statepoint: %d indices for %d axes", len(idx), len(a.Shape)))
	}
	off := 0
	for i, st := range a.strides() {
		if idx[i] < 0 || idx[i] >= a.Shape[i] {
			panic(fmt.Sprintf("statepoint: index %d out of range for axis %s (%d)", idx[i], a.Axes[i], a.Shape[i]))
		}
		off += idx[i] * st
	}
	return a.Data[off]
}

// Axis returns the position of the named axis, or -1.
func (a NDArray) Axis(name string) int {
	return slices.Index(a.Axes, name)
}

// Squeeze drops size-1 axes, except those named in keep. Keeping an axis
// guarantees a one-group energy structure still yields a group axis.
func (a NDArray) Squeeze(keep ...string) NDArray {
	out := NDArray{Data: a.Data}
	for i, n := range a.Shape {
		if n == 1 && !slices.Contains(keep, a.Axes[i]) {
			continue
		}
		out.Shape = append(out.Shape, n)
		out.Axes = append(out.Axes, a.Axes[i])
	}
	return out
}

// Rows views a two-axis array as rows of the second axis. The rows alias Data.
func (a NDArray) Rows() ([][]float64, error) {
	if len(a.Shape) != 2 {
		return nil, fmt.Errorf("%w: want 2 axes, have %v %v", ErrBadShape, a.Axes, a.Shape)
	}
	rows := make([][]float64, a.Shape[0])
	for i := range rows {
		rows[i] = a.Data[i*a.Shape[1] : (i+1)*a.Shape[1]]
	}
	return rows, nil
}
