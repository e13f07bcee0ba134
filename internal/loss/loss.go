// Package loss provides classification loss functions over batches of logits.
package loss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the per-example loss of logits [n × classes] against n labels.
	Forward(logits mat.Matrix, labels []int) []float64

	// Backward computes the gradient of the mean loss w.r.t. the logits.
	Backward(logits mat.Matrix, labels []int) *mat.Dense
}

// SoftmaxCrossEntropy is the cross entropy of softmax(logits) against integer labels.
//
// Both directions subtract the row maximum before exponentiating. The values are
// mathematically unchanged, and large logits no longer overflow.
type SoftmaxCrossEntropy struct{}

// Forward computes -logits[label] + log(sum(exp(logits))) for each row.
func (SoftmaxCrossEntropy) Forward(logits mat.Matrix, labels []int) []float64 {
	n, classes := logits.Dims()
	checkLabels(n, classes, labels)

	losses := make([]float64, n)
	row := make([]float64, classes)
	for i := range losses {
		mat.Row(row, i, logits)
		losses[i] = -row[labels[i]] + floats.LogSumExp(row)
	}
	return losses
}

// Backward computes (softmax(logits) - onehot(labels)) / n.
func (SoftmaxCrossEntropy) Backward(logits mat.Matrix, labels []int) *mat.Dense {
	n, classes := logits.Dims()
	checkLabels(n, classes, labels)

	grad := mat.NewDense(n, classes, nil)
	scale := 1 / float64(n)
	for i := 0; i < n; i++ {
		row := grad.RawRowView(i)
		mat.Row(row, i, logits)
		Softmax(row, row)
		row[labels[i]] -= 1
		floats.Scale(scale, row)
	}
	return grad
}

// Softmax writes the normalised exponentials of logits into dst. dst may alias logits.
func Softmax(dst, logits []float64) {
	if len(dst) != len(logits) {
		panic("Softmax: dst and logits must have same length")
	}
	hi := floats.Max(logits)
	var sum float64
	for i, v := range logits {
		e := math.Exp(v - hi)
		dst[i] = e
		sum += e
	}
	floats.Scale(1/sum, dst)
}

// OneHot returns an [len(labels) × classes] matrix with a single 1 per row at the
// label's column.
func OneHot(labels []int, classes int) *mat.Dense {
	checkLabels(len(labels), classes, labels)
	m := mat.NewDense(len(labels), classes, nil)
	for i, l := range labels {
		m.Set(i, l, 1)
	}
	return m
}

// Mean returns the batch mean of per-example losses.
func Mean(losses []float64) float64 {
	return stat.Mean(losses, nil)
}

func checkLabels(n, classes int, labels []int) {
	if len(labels) != n {
		panic(fmt.Sprintf("SoftmaxCrossEntropy: %d logit rows but %d labels", n, len(labels)))
	}
	for i, l := range labels {
		if l < 0 || l >= classes {
			panic(fmt.Sprintf("SoftmaxCrossEntropy: label %d at row %d outside [0, %d)", l, i, classes))
		}
	}
}
