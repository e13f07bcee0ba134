// Package activations provides element-wise activation functions for dense layers.
package activations

import "gonum.org/v1/gonum/mat"

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (r ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// Apply replaces every element of m with act.Activate of it.
func Apply(act Activation, m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		return act.Activate(v)
	}, m)
}
