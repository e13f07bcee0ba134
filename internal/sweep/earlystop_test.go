package sweep

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

// firstStop feeds epochs to s and returns the index of the first one that stops it.
func firstStop(s Stopper, epochs []Epoch) int {
	for i, e := range epochs {
		e.Index = i
		if s.OnEpochEnd(e) {
			return i
		}
	}
	return -1
}

func losses(vals ...float64) []Epoch {
	epochs := make([]Epoch, len(vals))
	for i, v := range vals {
		epochs[i].Loss = v
	}
	return epochs
}

func accuracies(vals ...float64) []Epoch {
	epochs := make([]Epoch, len(vals))
	for i, v := range vals {
		epochs[i].Accuracy = v
	}
	return epochs
}

func TestStoppers(t *testing.T) {
	tests := []struct {
		name    string
		policy  string
		epochs  []Epoch
		stopped int
	}{
		{"never", PolicyNone, losses(1, 2, 3, 4), -1},
		{"empty policy", "", losses(1, 2), -1},
		{"loss keeps falling", PolicyLossRise, losses(3, 2, 1), -1},
		{"loss plateau", PolicyLossRise, losses(3, 2, 2, 2), -1},
		{"loss rises", PolicyLossRise, losses(3, 2, 2.5, 1), 2},
		{"accuracy keeps rising", PolicyAccuracyDrop, accuracies(0.1, 0.5, 0.9), -1},
		{"accuracy drops", PolicyAccuracyDrop, accuracies(0.1, 0.5, 0.4), 2},
		{"first epoch never stops", PolicyAccuracyDrop, accuracies(0), -1},
		{"patience exhausted", PolicyPatience, losses(3, 2, 2, 2.1), 3},
		{"patience reset", PolicyPatience, losses(3, 3, 2, 2, 1), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStopper(tt.policy, 2, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.stopped, firstStop(s, tt.epochs))
		})
	}
}

func TestEarlyStoppingThreshold(t *testing.T) {
	s := NewEarlyStopping(1, 0.5)
	assert.False(t, s.OnEpochEnd(Epoch{Loss: 3}))
	assert.True(t, s.OnEpochEnd(Epoch{Loss: 2.8}), "improvement below threshold is a bad epoch")
	assert.True(t, s.Stopped)
}

func TestNewStopperErrors(t *testing.T) {
	for _, tc := range []struct {
		policy    string
		patience  int
		threshold float64
	}{
		{"bogus", 1, 0},
		{PolicyPatience, 0, 0},
		{PolicyPatience, 2, -1},
	} {
		_, err := NewStopper(tc.policy, tc.patience, tc.threshold)
		assert.True(t, errors.Is(err, errs.ErrInvalidConfiguration), "%+v: got %v", tc, err)
	}
}
