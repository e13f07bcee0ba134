package net

import (
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// mnistBatch returns an MNIST-shaped random batch with labels in [0, 10).
func mnistBatch(n int) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(42))
	data := make([]float64, n*784)
	for i := range data {
		data[i] = rng.Float64()
	}
	labels := make([]int, n)
	for i := range labels {
		labels[i] = rng.Intn(10)
	}
	return mat.NewDense(n, 784, data), labels
}

// BenchmarkTrainStep benchmarks one plain step of the notebook's base architecture.
func BenchmarkTrainStep(b *testing.B) {
	network, err := Build(784, []int{100, 64}, 10, 0.2, WithSeed(42))
	if err != nil {
		b.Fatal(err)
	}
	x, y := mnistBatch(128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := network.TrainStep(x, y, Plain()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTrainStepDropout benchmarks the same step with weight masks.
func BenchmarkTrainStepDropout(b *testing.B) {
	network, err := Build(784, []int{100, 64}, 10, 0.2, WithSeed(42))
	if err != nil {
		b.Fatal(err)
	}
	x, y := mnistBatch(128)
	mode, err := Dropout(0.95)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := network.TrainStep(x, y, mode); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPredict benchmarks inference on a batch.
func BenchmarkPredict(b *testing.B) {
	network, err := Build(784, []int{100, 64}, 10, 0.2, WithSeed(42))
	if err != nil {
		b.Fatal(err)
	}
	x, _ := mnistBatch(128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := network.Predict(x); err != nil {
			b.Fatal(err)
		}
	}
}
