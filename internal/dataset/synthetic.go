package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Side is the width and height of a synthetic digit image, matching MNIST.
const Side = 28

// Classes is the number of digit classes.
const Classes = 10

// 3 wide, 5 tall glyphs, row-major.
var glyphs = [Classes][15]float64{
	{1, 1, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 1, 1},
	{0, 1, 0, 1, 1, 0, 0, 1, 0, 0, 1, 0, 1, 1, 1},
	{1, 1, 1, 0, 0, 1, 1, 1, 1, 1, 0, 0, 1, 1, 1},
	{1, 1, 1, 0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 1},
	{1, 0, 1, 1, 0, 1, 1, 1, 1, 0, 0, 1, 0, 0, 1},
	{1, 1, 1, 1, 0, 0, 1, 1, 1, 0, 0, 1, 1, 1, 1},
	{1, 1, 1, 1, 0, 0, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	{1, 1, 1, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0, 1, 0},
	{1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	{1, 1, 1, 1, 0, 1, 1, 1, 1, 0, 0, 1, 1, 1, 1},
}

const (
	glyphCols = 3
	glyphRows = 5
	cell      = 5 // pixels per glyph cell
)

// Synthetic generates n MNIST-shaped digit images for running without the real files.
// Labels cycle through 0..9. Each glyph is scaled up, shifted by a few pixels and
// overlaid with uniform noise, then clamped to [0, 1].
func Synthetic(n int, src rand.Source) *Dataset {
	rng := rand.New(src)
	jitter := distuv.Uniform{Min: -0.15, Max: 0.15, Src: src}

	d := &Dataset{
		Images: make([]*mat.Dense, n),
		Labels: make([]int, n),
	}
	for i := 0; i < n; i++ {
		digit := i % Classes
		img := mat.NewDense(Side, Side, nil)

		top := rng.Intn(Side - glyphRows*cell + 1)
		left := 4 + rng.Intn(Side-glyphCols*cell-7)
		for gy := 0; gy < glyphRows; gy++ {
			for gx := 0; gx < glyphCols; gx++ {
				if glyphs[digit][gy*glyphCols+gx] == 0 {
					continue
				}
				for sy := 0; sy < cell; sy++ {
					for sx := 0; sx < cell; sx++ {
						img.Set(top+gy*cell+sy, left+gx*cell+sx, 1)
					}
				}
			}
		}
		img.Apply(func(_, _ int, v float64) float64 {
			return clamp(v + jitter.Rand())
		}, img)

		d.Images[i] = img
		d.Labels[i] = digit
	}
	return d
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
