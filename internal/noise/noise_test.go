package noise

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

func grey(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 0.5
	}
	return mat.NewDense(rows, cols, data)
}

func count(img *mat.Dense, val float64) int {
	n := 0
	for _, v := range img.RawMatrix().Data {
		if v == val {
			n++
		}
	}
	return n
}

func TestCounts(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		pixels       int
		salt, pepper int
	}{
		{"zero amount", 0, 784, 0, 0},
		{"rounds up", 0.0005, 784, 1, 1},
		{"half", 0.5, 784, 196, 196},
		{"odd pixel count", 0.05, 25, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, pepper := Counts(tt.amount, tt.pixels)
			assert.Equal(t, tt.salt, salt)
			assert.Equal(t, tt.pepper, pepper)
		})
	}
}

func TestSaltPepperBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	images := []*mat.Dense{grey(28, 28), grey(28, 28), grey(10, 7)}

	for _, amount := range []float64{0.005, 0.05, 0.5} {
		for i := range images {
			images[i] = grey(images[i].Dims())
		}
		require.NoError(t, SaltPepper(images, amount, rng))

		for _, img := range images {
			r, c := img.Dims()
			limit, _ := Counts(amount, r*c)
			salted, peppered := count(img, 1), count(img, 0)

			assert.LessOrEqual(t, salted, limit, "amount %v", amount)
			assert.LessOrEqual(t, peppered, limit, "amount %v", amount)
			assert.Greater(t, salted+peppered, 0, "amount %v", amount)
		}
	}
}

func TestSaltPepperSkipsLastRowAndColumn(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	img := grey(6, 5)
	require.NoError(t, SaltPepper([]*mat.Dense{img}, 1, rng))

	for j := 0; j < 5; j++ {
		assert.Equal(t, 0.5, img.At(5, j))
	}
	for i := 0; i < 6; i++ {
		assert.Equal(t, 0.5, img.At(i, 4))
	}
}

func TestSaltPepperZeroAmountIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	img := grey(28, 28)

	require.NoError(t, SaltPepper([]*mat.Dense{img}, 0, rng))
	require.NoError(t, SaltPepper([]*mat.Dense{img}, -0.3, rng))

	assert.True(t, mat.Equal(grey(28, 28), img))
}

func TestSaltPepperRejectsAmountAboveOne(t *testing.T) {
	err := SaltPepper([]*mat.Dense{grey(2, 2)}, 1.5, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, errs.ErrInvalidConfiguration))
}
