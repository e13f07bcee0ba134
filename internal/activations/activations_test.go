package activations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestReLU(t *testing.T) {
	relu := ReLU{}

	tests := []struct {
		name  string
		input float64
		value float64
		deriv float64
	}{
		{"positive", 2.5, 2.5, 1},
		{"zero", 0, 0, 0},
		{"negative", -3, 0, 0},
		{"tiny positive", 1e-12, 1e-12, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, relu.Activate(tt.input))
			assert.Equal(t, tt.deriv, relu.Derivative(tt.input))
		})
	}
}

func TestApply(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{-1, 2, 0.5, -0.25})
	Apply(ReLU{}, m)
	assert.Equal(t, []float64{0, 2, 0.5, 0}, m.RawMatrix().Data)
}
