// Package layer provides neural network layer implementations.
//
// Layers work on whole batches: inputs and outputs are row-major matrices with one
// example per row.
package layer

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/activations"
	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
	"github.com/FlavioCFOliveira/mlpsearch/internal/opt"
)

// Layer is a neural network layer.
type Layer interface {
	// Forward maps a batch [n × InSize] to [n × OutSize] without touching parameters.
	Forward(x mat.Matrix) *mat.Dense

	// Backward takes the batch that was fed to Forward and the gradient of the loss
	// with respect to the layer output, updates the layer's parameters and returns the
	// gradient with respect to the input.
	Backward(x, grad mat.Matrix) *mat.Dense

	InSize() int
	OutSize() int
}

// Maskable is a Layer whose connections can be dropped for a single pass.
type Maskable interface {
	Layer

	// Masked returns a Layer that computes with the weights multiplied element-wise by
	// mask, an [InSize × OutSize] matrix of zeros and ones. Parameter updates made
	// through the returned Layer are applied to the unmasked weights.
	Masked(mask mat.Matrix) Layer
}

// Dense is a fully connected layer followed by ReLU.
type Dense struct {
	// Shape: [in × out], so a batch multiplies on the left: x·W
	weights *mat.Dense
	biases  *mat.VecDense
	act     activations.Activation
	sgd     opt.SGD
	inSize  int
	outSize int
}

// NewDense creates a dense layer with variance-scaled Gaussian weights and zero biases.
// src drives the weight initialisation; a nil src uses the global generator.
func NewDense(in, out int, learningRate float64, src rand.Source) (*Dense, error) {
	if in <= 0 || out <= 0 {
		return nil, errs.Configf("dense layer widths must be > 0, got %d -> %d", in, out)
	}
	sgd, err := opt.NewSGD(learningRate)
	if err != nil {
		return nil, err
	}

	return &Dense{
		weights: VarianceScaling(in, out, src),
		biases:  mat.NewVecDense(out, nil),
		act:     activations.ReLU{},
		sgd:     sgd,
		inSize:  in,
		outSize: out,
	}, nil
}

// Forward computes max(0, x·W + b).
func (d *Dense) Forward(x mat.Matrix) *mat.Dense {
	return d.forward(x, d.weights)
}

// Backward returns the input gradient g·Wᵀ and applies the SGD update to W and b.
// The input gradient is not multiplied by any ReLU derivative.
func (d *Dense) Backward(x, grad mat.Matrix) *mat.Dense {
	return d.backward(x, grad, d.weights)
}

// Masked implements Maskable.
func (d *Dense) Masked(mask mat.Matrix) Layer {
	w := mat.NewDense(d.inSize, d.outSize, nil)
	w.MulElem(d.weights, mask)
	return &masked{dense: d, weights: w}
}

func (d *Dense) forward(x mat.Matrix, w *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	out := mat.NewDense(n, d.outSize, nil)
	out.Mul(x, w)

	b := d.biases.RawVector().Data
	for i := 0; i < n; i++ {
		floats.Add(out.RawRowView(i), b)
	}
	activations.Apply(d.act, out)
	return out
}

// backward uses w for the input gradient and updates d's own parameters.
func (d *Dense) backward(x, grad mat.Matrix, w *mat.Dense) *mat.Dense {
	n, in := x.Dims()
	if in != d.inSize {
		panic(mat.ErrShape)
	}

	gradIn := mat.NewDense(n, d.inSize, nil)
	gradIn.Mul(grad, w.T())

	gradW := mat.NewDense(d.inSize, d.outSize, nil)
	gradW.Mul(x.T(), grad)
	gradB := columnSums(grad)

	d.sgd.StepInPlace(d.weights.RawMatrix().Data, gradW.RawMatrix().Data)
	d.sgd.StepInPlace(d.biases.RawVector().Data, gradB)

	return gradIn
}

// columnSums sums grad over the batch axis. This equals the batch mean scaled by the
// batch size.
func columnSums(m mat.Matrix) []float64 {
	_, c := m.Dims()
	sums := make([]float64, c)
	for j := range sums {
		sums[j] = floats.Sum(mat.Col(nil, j, m))
	}
	return sums
}

// Params returns all dense layer parameters flattened, weights first.
func (d *Dense) Params() []float64 {
	w := d.weights.RawMatrix().Data
	b := d.biases.RawVector().Data
	params := make([]float64, 0, len(w)+len(b))
	params = append(params, w...)
	params = append(params, b...)
	return params
}

// Weights returns a copy of the weight matrix.
func (d *Dense) Weights() *mat.Dense {
	return mat.DenseCopyOf(d.weights)
}

// Biases returns a copy of the bias vector.
func (d *Dense) Biases() []float64 {
	return append([]float64(nil), d.biases.RawVector().Data...)
}

// SetWeight sets the weight connecting input row to output col.
func (d *Dense) SetWeight(row, col int, val float64) {
	d.weights.Set(row, col, val)
}

// SetBias sets a single bias.
func (d *Dense) SetBias(idx int, val float64) {
	d.biases.SetVec(idx, val)
}

// GetWeight gets a single weight at (row, col).
func (d *Dense) GetWeight(row, col int) float64 {
	return d.weights.At(row, col)
}

// GetBias gets a single bias.
func (d *Dense) GetBias(idx int) float64 {
	return d.biases.AtVec(idx)
}

// LearningRate returns the step size fixed at construction.
func (d *Dense) LearningRate() float64 {
	return d.sgd.LearningRate
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

// masked is a Dense seen through a dropout mask for one forward/backward pair.
type masked struct {
	dense   *Dense
	weights *mat.Dense
}

func (m *masked) Forward(x mat.Matrix) *mat.Dense {
	return m.dense.forward(x, m.weights)
}

func (m *masked) Backward(x, grad mat.Matrix) *mat.Dense {
	return m.dense.backward(x, grad, m.weights)
}

func (m *masked) InSize() int  { return m.dense.inSize }
func (m *masked) OutSize() int { return m.dense.outSize }
