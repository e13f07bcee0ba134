package net

import (
	"fmt"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

// Mode selects how TrainStep runs its forward pass.
type Mode struct {
	dropout  bool
	keepProb float64
}

// Plain trains with every connection active.
func Plain() Mode {
	return Mode{keepProb: 1}
}

// Dropout trains with weight-level dropout, keeping each connection with probability
// keepProb in (0, 1].
func Dropout(keepProb float64) (Mode, error) {
	if !(keepProb > 0 && keepProb <= 1) {
		return Mode{}, errs.Configf("keep_prob must be in (0, 1], got %v", keepProb)
	}
	return Mode{dropout: true, keepProb: keepProb}, nil
}

// KeepProb returns the probability of keeping a connection; 1 for plain training.
func (m Mode) KeepProb() float64 {
	if !m.dropout {
		return 1
	}
	return m.keepProb
}

// IsDropout reports whether the mode masks weights.
func (m Mode) IsDropout() bool {
	return m.dropout
}

func (m Mode) String() string {
	if !m.dropout {
		return "plain"
	}
	return fmt.Sprintf("dropout(%g)", m.keepProb)
}
