// Package dropout samples weight-level dropout masks.
//
// A mask zeroes whole connections of a dense layer for a single training pass. Masks
// are applied to a copy of the weights, so the trained parameters never lose a
// connection permanently.
package dropout

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
	"github.com/FlavioCFOliveira/mlpsearch/internal/layer"
)

// Masker draws masks whose entries are 1 with probability keepProb.
type Masker struct {
	keep distuv.Bernoulli
}

// NewMasker returns a Masker for keepProb in (0, 1]. src drives the sampling; a nil
// src uses the global generator.
func NewMasker(keepProb float64, src rand.Source) (*Masker, error) {
	if !(keepProb > 0 && keepProb <= 1) {
		return nil, errs.Configf("keep_prob must be in (0, 1], got %v", keepProb)
	}
	return &Masker{keep: distuv.Bernoulli{P: keepProb, Src: src}}, nil
}

// KeepProb returns the probability of keeping a connection.
func (m *Masker) KeepProb() float64 {
	return m.keep.P
}

// Mask samples a fresh [rows × cols] mask.
func (m *Masker) Mask(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = m.keep.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

// Apply returns the layers to use for one training pass: every Maskable layer is
// replaced by a view through a freshly sampled mask, in order. Other layers pass
// through unchanged.
func (m *Masker) Apply(layers []layer.Layer) []layer.Layer {
	out := make([]layer.Layer, len(layers))
	for i, l := range layers {
		if ml, ok := l.(layer.Maskable); ok {
			out[i] = ml.Masked(m.Mask(l.InSize(), l.OutSize()))
			continue
		}
		out[i] = l
	}
	return out
}
