package sweep

import (
	"math"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

// Stopping policies.
const (
	PolicyNone         = "none"
	PolicyLossRise     = "loss-rise"
	PolicyAccuracyDrop = "accuracy-drop"
	PolicyPatience     = "patience"
)

// Epoch is what a Stopper sees at the end of each epoch.
type Epoch struct {
	Index    int
	Loss     float64 // mean training loss
	Accuracy float64 // test accuracy after the epoch
}

// Stopper decides after each epoch whether training should stop.
type Stopper interface {
	OnEpochEnd(e Epoch) bool
}

// NewStopper returns a fresh stopper for policy. Stoppers are stateful, so every run
// needs its own.
func NewStopper(policy string, patience int, threshold float64) (Stopper, error) {
	switch policy {
	case "", PolicyNone:
		return Never{}, nil
	case PolicyLossRise:
		return &LossRise{}, nil
	case PolicyAccuracyDrop:
		return &AccuracyDrop{}, nil
	case PolicyPatience:
		if patience <= 0 {
			return nil, errs.Configf("patience must be > 0 (got %d)", patience)
		}
		if threshold < 0 {
			return nil, errs.Configf("threshold must be >= 0 (got %g)", threshold)
		}
		return NewEarlyStopping(patience, threshold), nil
	}
	return nil, errs.Configf("unknown stopping policy %q", policy)
}

// Never trains for the full epoch budget.
type Never struct{}

func (Never) OnEpochEnd(Epoch) bool { return false }

// LossRise stops as soon as the mean loss exceeds the last accepted epoch's.
type LossRise struct {
	last float64
	seen bool
}

func (s *LossRise) OnEpochEnd(e Epoch) bool {
	if s.seen && e.Loss > s.last {
		return true
	}
	s.last, s.seen = e.Loss, true
	return false
}

// AccuracyDrop stops as soon as test accuracy falls below the last accepted epoch's.
type AccuracyDrop struct {
	last float64
	seen bool
}

func (s *AccuracyDrop) OnEpochEnd(e Epoch) bool {
	if s.seen && e.Accuracy < s.last {
		return true
	}
	s.last, s.seen = e.Accuracy, true
	return false
}

// EarlyStopping stops training when the loss has stopped improving by more than
// Threshold for Patience consecutive epochs.
type EarlyStopping struct {
	Patience  int
	Threshold float64

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnEpochEnd(e Epoch) bool {
	if e.Loss < c.bestLoss-c.Threshold {
		c.bestLoss = e.Loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		c.Stopped = true
	}
	return c.Stopped
}
