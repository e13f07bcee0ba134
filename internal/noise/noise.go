// Package noise corrupts images for noise-robustness experiments.
package noise

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

// SaltVsPepper is the share of corrupted pixels set to 1 rather than 0.
const SaltVsPepper = 0.5

// Counts returns how many salt and pepper coordinates SaltPepper draws for an image of
// the given pixel count.
func Counts(amount float64, pixels int) (salt, pepper int) {
	if amount <= 0 {
		return 0, 0
	}
	salt = int(math.Ceil(amount * float64(pixels) * SaltVsPepper))
	pepper = int(math.Ceil(amount * float64(pixels) * (1 - SaltVsPepper)))
	return salt, pepper
}

// SaltPepper corrupts every image in place: for each one it sets Counts(amount, pixels)
// coordinates to 1 (salt) and then as many to 0 (pepper).
//
// Coordinates are drawn with replacement and independently per axis, so fewer
// distinct pixels than requested may flip. Each axis is drawn from [0, dim-1), which
// never touches the last row or column. amount <= 0 leaves the images untouched.
func SaltPepper(images []*mat.Dense, amount float64, rng *rand.Rand) error {
	if math.IsNaN(amount) || amount > 1 {
		return errs.Configf("noise amount must be <= 1, got %v", amount)
	}
	if amount <= 0 {
		return nil
	}

	for _, img := range images {
		rows, cols := img.Dims()
		salt, pepper := Counts(amount, rows*cols)
		scatter(img, salt, 1, rng)
		scatter(img, pepper, 0, rng)
	}
	return nil
}

func scatter(img *mat.Dense, n int, val float64, rng *rand.Rand) {
	rows, cols := img.Dims()
	for k := 0; k < n; k++ {
		img.Set(axis(rows, rng), axis(cols, rng), val)
	}
}

func axis(dim int, rng *rand.Rand) int {
	if dim < 2 {
		return 0
	}
	return rng.Intn(dim - 1)
}
