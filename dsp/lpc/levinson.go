package lpc

import (
	"fmt"
	"math"
)

// Model is the result of a Levinson-Durbin recursion of order p.
type Model struct {
	// Coefficients holds a[0..p] with a[0] = 1.
	Coefficients []float64
	// Reflection holds the partial correlation coefficients k[1..p] at
	// indices 0..p-1.
	Reflection []float64
	// Error is the final prediction error energy relative to R[0].
	Error float64
}

// NewModel allocates a model of the given order.
func NewModel(order int) *Model {
	if order < 1 {
		order = 1
	}

	m := &Model{
		Coefficients: make([]float64, order+1),
		Reflection:   make([]float64, order),
	}
	m.Coefficients[0] = 1

	return m
}

// Order returns p.
func (m *Model) Order() int { return len(m.Coefficients) - 1 }

// Stable reports whether every reflection coefficient satisfies |k| <= 1.
// Solve rejects |k| = 1 as degenerate, so a solved model is strictly inside.
func (m *Model) Stable() bool {
	for _, k := range m.Reflection {
		if !(math.Abs(k) <= 1) {
			return false
		}
	}

	return true
}

// Gain returns sqrt(Error), the excitation gain of the all-pole model.
func (m *Model) Gain() float64 {
	if m.Error <= 0 {
		return 0
	}

	return math.Sqrt(m.Error)
}

// Identity resets the model to A(z) = 1.
func (m *Model) Identity() {
	clear(m.Coefficients)
	clear(m.Reflection)
	m.Coefficients[0] = 1
	m.Error = 1
}

// LevinsonDurbin solves the normal equations for the autocorrelation
// sequence r and returns a model of the given order.
func LevinsonDurbin(r []float64, order int) (*Model, error) {
	m := NewModel(order)
	if err := m.Solve(r, order); err != nil {
		return nil, err
	}

	return m, nil
}

// Solve runs the recursion into m, reusing its storage. m must have been
// created with NewModel(order).
func (m *Model) Solve(r []float64, order int) error {
	if order < 1 || len(r) < order+1 {
		return fmt.Errorf("%w: order %d with %d lags", ErrInvalidModelOrder, order, len(r))
	}

	if len(m.Coefficients) != order+1 || len(m.Reflection) != order {
		return fmt.Errorf("%w: model of order %d, want %d", ErrLengthMismatch, m.Order(), order)
	}

	if !(r[0] > 0) {
		return fmt.Errorf("%w: R[0] = %g", ErrDegenerateModel, r[0])
	}

	a := m.Coefficients
	clear(a)
	a[0] = 1

	e := r[0]

	for i := 1; i <= order; i++ {
		acc := r[i]
		for j := 1; j < i; j++ {
			acc += a[j] * r[i-j]
		}

		k := -acc / e
		m.Reflection[i-1] = k

		for j := 1; j <= i/2; j++ {
			lo, hi := a[j], a[i-j]
			a[j] = lo + k*hi
			if j != i-j {
				a[i-j] = hi + k*lo
			}
		}

		a[i] = k

		e *= 1 - k*k
		if !(e > 0) || math.IsInf(e, 0) {
			return fmt.Errorf("%w: prediction error %g at order %d", ErrDegenerateModel, e, i)
		}
	}

	m.Error = e / r[0]

	return nil
}
