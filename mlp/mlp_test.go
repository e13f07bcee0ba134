package mlp

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestBuildTrainPredict(t *testing.T) {
	nw, err := BuildNetwork(4, []int{3}, 2, 0.1, WithSeed(3))
	require.NoError(t, err)

	x := mat.NewDense(2, 4, []float64{
		1, 0, 0, 1,
		0, 1, 1, 0,
	})
	y := []int{0, 1}

	l, err := nw.TrainStep(x, y, Plain())
	require.NoError(t, err)
	assert.Greater(t, l, 0.0)

	mode, err := Dropout(0.5)
	require.NoError(t, err)
	_, err = nw.TrainStep(x, y, mode)
	require.NoError(t, err)

	pred, err := nw.Predict(x)
	require.NoError(t, err)
	assert.Len(t, pred, 2)

	_, err = Dropout(0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = nw.Predict(mat.NewDense(1, 3, nil))
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

func TestNewNetwork(t *testing.T) {
	src := rand.NewSource(1)
	a, err := NewDense(4, 3, 0.1, src)
	require.NoError(t, err)
	b, err := NewDense(3, 2, 0.1, src)
	require.NoError(t, err)

	nw, err := NewNetwork([]Layer{a, b}, src)
	require.NoError(t, err)
	assert.Equal(t, 4, nw.InputWidth())
	assert.Equal(t, 2, nw.OutputWidth())

	_, err = NewNetwork([]Layer{b, a}, src)
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

func TestInjectSaltPepper(t *testing.T) {
	img := mat.NewDense(10, 10, nil)
	img.Apply(func(_, _ int, _ float64) float64 { return 0.5 }, img)

	require.NoError(t, InjectSaltPepper([]*mat.Dense{img}, 0.2, rand.New(rand.NewSource(5))))

	changed := 0
	for _, v := range img.RawMatrix().Data {
		if v != 0.5 {
			changed++
		}
	}
	assert.Greater(t, changed, 0)
	assert.LessOrEqual(t, changed, 20)
}
