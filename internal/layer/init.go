package layer

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// VarianceScaling returns an [in × out] matrix drawn from N(0, σ²) with
// σ = sqrt(2 / (in + out)).
func VarianceScaling(in, out int, src rand.Source) *mat.Dense {
	normal := distuv.Normal{
		Mu:    0,
		Sigma: math.Sqrt(2.0 / float64(in+out)),
		Src:   src,
	}

	data := make([]float64, in*out)
	for i := range data {
		data[i] = normal.Rand()
	}
	return mat.NewDense(in, out, data)
}
