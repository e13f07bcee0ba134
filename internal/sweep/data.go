package sweep

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/mlpsearch/internal/dataset"
)

// Data holds the three example sets of an experiment. Images stay 2-D so the noise
// search can corrupt copies of them.
type Data struct {
	Train, Val, Test *dataset.Dataset
}

// LoadData reads MNIST from cfg.Data.MNISTDir, or generates synthetic digits when it is
// empty. The last ValidationSize training examples become the validation set.
func LoadData(cfg *Config) (Data, error) {
	var train, test *dataset.Dataset
	if cfg.Data.MNISTDir != "" {
		var err error
		train, test, err = dataset.LoadMNIST(cfg.Data.MNISTDir)
		if err != nil {
			return Data{}, errors.Wrap(err, "load mnist")
		}
	} else {
		all := dataset.Synthetic(cfg.Data.SyntheticTrain+cfg.Data.SyntheticTest, rand.NewSource(cfg.Seed))
		train, test = all.SplitTail(cfg.Data.SyntheticTest)
	}

	// keep most of a small training set for training
	valSize := min(cfg.Data.ValidationSize, train.Len()/5)
	train, val := train.SplitTail(valSize)
	return Data{Train: train, Val: val, Test: test}, nil
}
