// Package opt provides the optimization step applied by trainable layers.
package opt

import (
	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

// Optimizer updates parameters in place from their gradients.
type Optimizer interface {
	// StepInPlace updates params in-place: params = params - lr * gradients
	StepInPlace(params, gradients []float64)
}

var _ Optimizer = SGD{}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// NewSGD returns an SGD optimizer, rejecting negative learning rates.
func NewSGD(learningRate float64) (SGD, error) {
	if learningRate < 0 {
		return SGD{}, errs.Configf("learning rate must be >= 0, got %v", learningRate)
	}
	return SGD{LearningRate: learningRate}, nil
}

// StepInPlace updates params in-place: params = params - lr * gradients
func (s SGD) StepInPlace(params, gradients []float64) {
	if len(params) != len(gradients) {
		panic("SGD: params and gradients must have same length")
	}
	floats.AddScaled(params, -s.LearningRate, gradients)
}
