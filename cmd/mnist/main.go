package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/dataset"
	"github.com/FlavioCFOliveira/mlpsearch/mlp"
)

// MNIST digit classification with a single network.
// Trains on the real IDX files when -mnist is given, on synthetic digits otherwise.
func main() {
	mnistDir := flag.String("mnist", "", "Directory holding the MNIST IDX files")
	hiddenFlag := flag.String("hidden", "100,64", "Comma separated hidden layer widths")
	epochs := flag.Int("epochs", 25, "Training epochs")
	lr := flag.Float64("lr", 0.2, "Learning rate")
	keep := flag.Float64("keep", 1, "Dropout keep probability (1 trains plain)")
	noiseAmount := flag.Float64("noise", 0, "Salt-and-pepper amount applied to every example set")
	seed := flag.Uint64("seed", 42, "PRNG seed")
	flag.Parse()

	hidden, err := parseWidths(*hiddenFlag)
	if err != nil {
		log.Fatalf("invalid -hidden: %v", err)
	}

	fmt.Println("=== MNIST Digit Classification ===")

	train, test, err := load(*mnistDir, *seed)
	if err != nil {
		log.Fatalf("load data: %v", err)
	}

	if *noiseAmount > 0 {
		rng := rand.New(rand.NewSource(*seed))
		for _, d := range []*dataset.Dataset{train, test} {
			if err := mlp.InjectSaltPepper(d.Images, *noiseAmount, rng); err != nil {
				log.Fatalf("inject noise: %v", err)
			}
		}
	}

	trainX, err := train.Flatten()
	if err != nil {
		log.Fatalf("flatten training set: %v", err)
	}
	testX, err := test.Flatten()
	if err != nil {
		log.Fatalf("flatten test set: %v", err)
	}

	network, err := mlp.BuildNetwork(train.Pixels(), hidden, dataset.Classes, *lr, mlp.WithSeed(*seed))
	if err != nil {
		log.Fatalf("build network: %v", err)
	}
	network.Summary(os.Stdout)

	mode := mlp.Plain()
	if *keep < 1 {
		if mode, err = mlp.Dropout(*keep); err != nil {
			log.Fatalf("invalid -keep: %v", err)
		}
	}

	fmt.Printf("\nTraining %d examples, mode %s...\n", train.Len(), mode)
	for epoch := 0; epoch < *epochs; epoch++ {
		loss, err := network.TrainStep(trainX, train.Labels, mode)
		if err != nil {
			log.Fatalf("epoch %d: %v", epoch, err)
		}
		if epoch%5 == 0 || epoch == *epochs-1 {
			acc, err := network.Accuracy(testX, test.Labels)
			if err != nil {
				log.Fatalf("evaluate: %v", err)
			}
			fmt.Printf("  Epoch %3d: Loss=%.4f, Test accuracy=%.1f%%\n", epoch, loss, acc*100)
		}
	}

	showPredictions(network, testX, test.Labels, 10)
}

func load(dir string, seed uint64) (train, test *dataset.Dataset, err error) {
	if dir != "" {
		return dataset.LoadMNIST(dir)
	}
	all := dataset.Synthetic(1200, rand.NewSource(seed))
	train, test = all.SplitTail(200)
	return train, test, nil
}

func parseWidths(s string) ([]int, error) {
	var widths []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		w, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		widths = append(widths, w)
	}
	return widths, nil
}

func showPredictions(network *mlp.Network, x *mat.Dense, labels []int, n int) {
	rows, cols := x.Dims()
	n = min(n, rows)
	pred, err := network.Predict(x.Slice(0, n, 0, cols))
	if err != nil {
		log.Fatalf("predict: %v", err)
	}

	fmt.Println("\nSample Predictions:")
	for i := 0; i < n; i++ {
		match := "✓"
		if pred[i] != labels[i] {
			match = "✗"
		}
		fmt.Printf("  %s True=%d, Predicted=%d\n", match, labels[i], pred[i])
	}
}
