// Package mlp is the public entry point to the multilayer perceptron engine.
package mlp

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
	"github.com/FlavioCFOliveira/mlpsearch/internal/layer"
	"github.com/FlavioCFOliveira/mlpsearch/internal/loss"
	"github.com/FlavioCFOliveira/mlpsearch/internal/net"
	"github.com/FlavioCFOliveira/mlpsearch/internal/noise"
)

// Re-export common types for easier access
type (
	Network = net.Network
	Cache   = net.Cache
	Mode    = net.Mode
	Option  = net.Option
	Layer   = layer.Layer
	Dense   = layer.Dense
	Loss    = loss.Loss
)

// Errors returned by the engine, matched with errors.Is.
var (
	ErrInvalidShape         = errs.ErrInvalidShape
	ErrInvalidConfiguration = errs.ErrInvalidConfiguration
)

// BuildNetwork creates dense ReLU layers input → hidden... → output trained with
// softmax cross-entropy and plain SGD.
func BuildNetwork(inputWidth int, hidden []int, outputWidth int, learningRate float64, opts ...Option) (*Network, error) {
	return net.Build(inputWidth, hidden, outputWidth, learningRate, opts...)
}

// NewNetwork composes existing layers.
func NewNetwork(layers []Layer, src rand.Source) (*Network, error) {
	return net.New(layers, loss.SoftmaxCrossEntropy{}, src)
}

// NewDense creates a single dense ReLU layer.
func NewDense(in, out int, learningRate float64, src rand.Source) (*Dense, error) {
	return layer.NewDense(in, out, learningRate, src)
}

// Training modes
func Plain() Mode {
	return net.Plain()
}

func Dropout(keepProb float64) (Mode, error) {
	return net.Dropout(keepProb)
}

// Options
func WithSeed(seed uint64) Option {
	return net.WithSeed(seed)
}

func WithSource(src rand.Source) Option {
	return net.WithSource(src)
}

// InjectSaltPepper corrupts each image in place with salt-and-pepper noise.
func InjectSaltPepper(images []*mat.Dense, amount float64, rng *rand.Rand) error {
	return noise.SaltPepper(images, amount, rng)
}
