// Package net provides core neural network types.
package net

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/dropout"
	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
	"github.com/FlavioCFOliveira/mlpsearch/internal/layer"
	"github.com/FlavioCFOliveira/mlpsearch/internal/loss"
)

// Network is an ordered stack of layers trained with softmax cross-entropy.
//
// A Network owns its layers and its random source. It is not safe for concurrent use;
// concurrent experiments each build their own Network.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	rng    *rand.Rand
}

type options struct {
	src rand.Source
}

// Option configures Build.
type Option func(*options)

// WithSeed seeds the network's random source, which drives weight initialisation and
// dropout masks.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.src = rand.NewSource(seed)
	}
}

// WithSource uses src as the network's random source. src must not be shared with
// another network.
func WithSource(src rand.Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// Build creates a network of dense layers input → hidden[0] → ... → output.
func Build(inputWidth int, hidden []int, outputWidth int, learningRate float64, opts ...Option) (*Network, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = rand.NewSource(uint64(time.Now().UnixNano()))
	}

	widths := make([]int, 0, len(hidden)+2)
	widths = append(widths, inputWidth)
	widths = append(widths, hidden...)
	widths = append(widths, outputWidth)

	layers := make([]layer.Layer, 0, len(widths)-1)
	for i := 0; i+1 < len(widths); i++ {
		d, err := layer.NewDense(widths[i], widths[i+1], learningRate, o.src)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		layers = append(layers, d)
	}

	return New(layers, loss.SoftmaxCrossEntropy{}, o.src)
}

// New creates a network from existing layers. Each layer's output width must equal
// the next layer's input width.
func New(layers []layer.Layer, lossFn loss.Loss, src rand.Source) (*Network, error) {
	if len(layers) == 0 {
		return nil, errs.Configf("network needs at least one layer")
	}
	for i := 1; i < len(layers); i++ {
		if layers[i-1].OutSize() != layers[i].InSize() {
			return nil, errs.Shapef("layer %d outputs %d values but layer %d expects %d",
				i-1, layers[i-1].OutSize(), i, layers[i].InSize())
		}
	}
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}

	return &Network{
		layers: layers,
		loss:   lossFn,
		rng:    rand.New(src),
	}, nil
}

// Cache holds the input batch and every layer's output from one forward pass.
type Cache struct {
	Input   mat.Matrix
	Outputs []*mat.Dense
}

// Logits returns the output of the last layer.
func (c *Cache) Logits() *mat.Dense {
	return c.Outputs[len(c.Outputs)-1]
}

// LayerInput returns what layer i received: the batch for the first layer, the
// previous layer's output otherwise.
func (c *Cache) LayerInput(i int) mat.Matrix {
	if i == 0 {
		return c.Input
	}
	return c.Outputs[i-1]
}

// Forward performs a forward pass through all layers, keeping every activation.
func (n *Network) Forward(x mat.Matrix) (*Cache, error) {
	if err := n.checkBatch(x); err != nil {
		return nil, err
	}
	return forward(n.layers, x), nil
}

func forward(layers []layer.Layer, x mat.Matrix) *Cache {
	c := &Cache{Input: x, Outputs: make([]*mat.Dense, 0, len(layers))}
	curr := x
	for _, l := range layers {
		out := l.Forward(curr)
		c.Outputs = append(c.Outputs, out)
		curr = out
	}
	return c
}

// Predict returns the arg-max class of each row of the logits.
func (n *Network) Predict(x mat.Matrix) ([]int, error) {
	c, err := n.Forward(x)
	if err != nil {
		return nil, err
	}
	logits := c.Logits()
	rows, _ := logits.Dims()
	pred := make([]int, rows)
	for i := range pred {
		pred[i] = floats.MaxIdx(logits.RawRowView(i))
	}
	return pred, nil
}

// Accuracy returns the fraction of rows of x whose predicted class equals the label.
func (n *Network) Accuracy(x mat.Matrix, labels []int) (float64, error) {
	if err := n.checkLabels(x, labels); err != nil {
		return 0, err
	}
	pred, err := n.Predict(x)
	if err != nil {
		return 0, err
	}
	hits := make([]float64, len(pred))
	for i := range pred {
		if pred[i] == labels[i] {
			hits[i] = 1
		}
	}
	return stat.Mean(hits, nil), nil
}

// TrainStep performs one full-batch gradient-descent step and returns the mean loss of
// the batch as seen by the forward pass, before the update.
//
// With a dropout mode each maskable layer computes through a freshly sampled mask for
// this step only.
func (n *Network) TrainStep(x mat.Matrix, labels []int, mode Mode) (float64, error) {
	if err := n.checkLabels(x, labels); err != nil {
		return 0, err
	}

	layers := n.layers
	if mode.dropout {
		masker, err := dropout.NewMasker(mode.keepProb, n.rng)
		if err != nil {
			return 0, err
		}
		layers = masker.Apply(n.layers)
	}

	c := forward(layers, x)
	logits := c.Logits()
	losses := n.loss.Forward(logits, labels)
	grad := n.loss.Backward(logits, labels)

	for i := len(layers) - 1; i >= 0; i-- {
		grad = layers[i].Backward(c.LayerInput(i), grad)
	}

	return loss.Mean(losses), nil
}

// Layers returns the network's layers in order.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// InputWidth returns the number of features the first layer expects.
func (n *Network) InputWidth() int {
	return n.layers[0].InSize()
}

// OutputWidth returns the number of classes the last layer scores.
func (n *Network) OutputWidth() int {
	return n.layers[len(n.layers)-1].OutSize()
}

// Params returns all trainable parameters flattened, in layer order.
func (n *Network) Params() []float64 {
	var params []float64
	for _, l := range n.layers {
		if p, ok := l.(interface{ Params() []float64 }); ok {
			params = append(params, p.Params()...)
		}
	}
	return params
}

func (n *Network) checkBatch(x mat.Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return errs.Shapef("empty batch")
	}
	if cols != n.InputWidth() {
		return errs.Shapef("network expects %d features per example, got %d", n.InputWidth(), cols)
	}
	return nil
}

func (n *Network) checkLabels(x mat.Matrix, labels []int) error {
	if err := n.checkBatch(x); err != nil {
		return err
	}
	rows, _ := x.Dims()
	if len(labels) != rows {
		return errs.Shapef("batch has %d examples but %d labels", rows, len(labels))
	}
	classes := n.OutputWidth()
	for i, l := range labels {
		if l < 0 || l >= classes {
			return errs.Shapef("label %d at row %d outside [0, %d)", l, i, classes)
		}
	}
	return nil
}
