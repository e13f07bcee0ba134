// Package sweep runs the hyperparameter searches around the MLP engine: hidden layer
// count, hidden layer width, dropout keep level and salt-and-pepper noise level.
package sweep

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/dataset"
	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
	"github.com/FlavioCFOliveira/mlpsearch/internal/net"
	"github.com/FlavioCFOliveira/mlpsearch/internal/noise"
)

// Search names a swept hyperparameter.
type Search string

const (
	SearchLayers Search = "layers"
	SearchNodes  Search = "nodes"
	SearchKeep   Search = "keep"
	SearchNoise  Search = "noise"
)

// Run is one trained configuration.
type Run struct {
	Search   Search
	Param    float64 // extra hidden layers, hidden width, keep probability or noise amount
	Hidden   []int
	KeepProb float64
	Noise    float64

	// Per completed epoch.
	Losses  []float64
	Curve   []float64 // test accuracy
	Seconds []float64 // wall time since the run started

	StoppedAt    int // epoch that triggered early stopping, -1 if none did
	ValAccuracy  float64
	TestAccuracy float64
}

// Label describes the run's swept value.
func (r Run) Label() string {
	switch r.Search {
	case SearchLayers:
		return fmt.Sprintf("extra_layers=%d", int(r.Param))
	case SearchNodes:
		return fmt.Sprintf("nodes=%d", int(r.Param))
	case SearchKeep:
		return fmt.Sprintf("keep=%g", r.Param)
	case SearchNoise:
		return fmt.Sprintf("noise=%g", r.Param)
	}
	return fmt.Sprintf("%s=%g", r.Search, r.Param)
}

// Result is the outcome of one search.
type Result struct {
	Search    Search
	EarlyStop bool
	Runs      []Run
	Best      int // index into Runs
}

// BestRun returns the run with the highest test accuracy.
func (r *Result) BestRun() Run {
	return r.Runs[r.Best]
}

// Report is the outcome of a full plan.
type Report struct {
	EarlyStop                  bool
	Layers, Nodes, Keep, Noise *Result
}

// Results returns the searches in the order they ran.
func (r *Report) Results() []*Result {
	return []*Result{r.Layers, r.Nodes, r.Keep, r.Noise}
}

type batch struct {
	x *mat.Dense
	y []int
}

// Runner trains networks for each configuration of a search. Configurations run on
// up to cfg.Workers goroutines; each builds its own network and random source.
type Runner struct {
	cfg  *Config
	data Data
	out  io.Writer

	train, val, test batch

	mu *sync.Mutex // guards out
}

// NewRunner flattens data once for all searches. Progress lines go to out.
func NewRunner(cfg *Config, data Data, out io.Writer) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	r := &Runner{cfg: cfg, data: data, out: out, mu: &sync.Mutex{}}

	var err error
	if r.train, err = flatten(data.Train); err != nil {
		return nil, errors.Wrap(err, "training set")
	}
	if r.test, err = flatten(data.Test); err != nil {
		return nil, errors.Wrap(err, "test set")
	}
	if data.Val != nil && data.Val.Len() > 0 {
		if r.val, err = flatten(data.Val); err != nil {
			return nil, errors.Wrap(err, "validation set")
		}
	}
	return r, nil
}

func flatten(d *dataset.Dataset) (batch, error) {
	if d == nil {
		return batch{}, errs.Shapef("missing dataset")
	}
	x, err := d.Flatten()
	if err != nil {
		return batch{}, err
	}
	return batch{x: x, y: d.Labels}, nil
}

// Hidden returns the hidden widths for a network with extra layers beyond the first two:
// [FirstHidden, nodes, nodes...].
func (r *Runner) Hidden(extra, nodes int) []int {
	hidden := []int{r.cfg.FirstHidden, nodes}
	for i := 0; i < extra; i++ {
		hidden = append(hidden, nodes)
	}
	return hidden
}

// All runs the four searches in sequence. The node search uses the best layer count,
// and the keep and noise searches use the best layer count and width.
func (r *Runner) All(ctx context.Context) (*Report, error) {
	layers, err := r.Layers(ctx)
	if err != nil {
		return nil, err
	}
	extra := int(layers.BestRun().Param)

	nodes, err := r.Nodes(ctx, extra)
	if err != nil {
		return nil, err
	}
	width := int(nodes.BestRun().Param)

	keep, err := r.Keep(ctx, extra, width)
	if err != nil {
		return nil, err
	}
	noisy, err := r.Noise(ctx, extra, width)
	if err != nil {
		return nil, err
	}
	return &Report{EarlyStop: r.cfg.EarlyStop.Enabled, Layers: layers, Nodes: nodes, Keep: keep, Noise: noisy}, nil
}

// Both runs the full plan twice with the same seeds: first for the plain epoch budget,
// then with the configured early stopping policies.
func (r *Runner) Both(ctx context.Context) (plain, stopped *Report, err error) {
	es := r.cfg.EarlyStop
	es.Enabled = true
	if err := es.validate(); err != nil {
		return nil, nil, err
	}

	if plain, err = r.withEarlyStop(false).All(ctx); err != nil {
		return nil, nil, err
	}
	if stopped, err = r.withEarlyStop(true).All(ctx); err != nil {
		return nil, nil, err
	}
	return plain, stopped, nil
}

// withEarlyStop returns a runner sharing r's data and output with early stopping
// switched on or off.
func (r *Runner) withEarlyStop(enabled bool) *Runner {
	cfg := *r.cfg
	cfg.EarlyStop.Enabled = enabled
	return &Runner{
		cfg:   &cfg,
		data:  r.data,
		out:   r.out,
		train: r.train,
		val:   r.val,
		test:  r.test,
		mu:    r.mu,
	}
}

// Layers trains networks with 0..MaxHiddenLayers-1 extra hidden layers of BaseNodes.
func (r *Runner) Layers(ctx context.Context) (*Result, error) {
	runs := make([]Run, r.cfg.MaxHiddenLayers)
	for k := range runs {
		runs[k] = Run{Search: SearchLayers, Param: float64(k), Hidden: r.Hidden(k, r.cfg.BaseNodes), KeepProb: 1}
	}
	return r.search(ctx, SearchLayers, runs)
}

// Nodes trains networks with extra hidden layers for every width in NodeCounts.
func (r *Runner) Nodes(ctx context.Context, extra int) (*Result, error) {
	runs := make([]Run, len(r.cfg.NodeCounts))
	for i, n := range r.cfg.NodeCounts {
		runs[i] = Run{Search: SearchNodes, Param: float64(n), Hidden: r.Hidden(extra, n), KeepProb: 1}
	}
	return r.search(ctx, SearchNodes, runs)
}

// Keep trains the chosen architecture once per keep level. A level of 1 trains plain.
func (r *Runner) Keep(ctx context.Context, extra, nodes int) (*Result, error) {
	runs := make([]Run, len(r.cfg.KeepLevels))
	for i, k := range r.cfg.KeepLevels {
		runs[i] = Run{Search: SearchKeep, Param: k, Hidden: r.Hidden(extra, nodes), KeepProb: k}
	}
	return r.search(ctx, SearchKeep, runs)
}

// Noise trains the chosen architecture once per noise level, on copies of every
// example set corrupted with that amount of salt-and-pepper noise.
func (r *Runner) Noise(ctx context.Context, extra, nodes int) (*Result, error) {
	runs := make([]Run, len(r.cfg.NoiseLevels))
	for i, a := range r.cfg.NoiseLevels {
		runs[i] = Run{Search: SearchNoise, Param: a, Hidden: r.Hidden(extra, nodes), KeepProb: 1, Noise: a}
	}
	return r.search(ctx, SearchNoise, runs)
}

func (r *Runner) search(ctx context.Context, s Search, runs []Run) (*Result, error) {
	epochs, policy := r.cfg.Epochs, PolicyNone
	if es := r.cfg.EarlyStop; es.Enabled {
		epochs, policy = es.Epochs, es.Structure
		if s == SearchKeep || s == SearchNoise {
			policy = es.Regularization
		}
	}
	r.logf("search %s: %d configurations, %d epochs, stopping %s", s, len(runs), epochs, policy)

	errList := make([]error, len(runs))
	sem := make(chan struct{}, r.cfg.Workers)
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			seed := r.cfg.Seed + uint64(i)
			errList[i] = r.train1(ctx, &runs[i], epochs, policy, seed)
		}(i)
	}
	wg.Wait()

	for i, err := range errList {
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s", s, runs[i].Label())
		}
	}

	res := &Result{Search: s, EarlyStop: r.cfg.EarlyStop.Enabled, Runs: runs, Best: pickBest(runs)}
	best := res.BestRun()
	r.logf("search %s: best %s test_acc=%.4f val_acc=%.4f", s, best.Label(), best.TestAccuracy, best.ValAccuracy)
	return res, nil
}

// pickBest keeps the first run unless a later one has strictly higher test accuracy
// than every run before it.
func pickBest(runs []Run) int {
	best := 0
	for i := 1; i < len(runs); i++ {
		if runs[i].TestAccuracy > runs[best].TestAccuracy {
			best = i
		}
	}
	return best
}

func (r *Runner) train1(ctx context.Context, run *Run, epochs int, policy string, seed uint64) error {
	stopper, err := NewStopper(policy, r.cfg.EarlyStop.Patience, r.cfg.EarlyStop.Threshold)
	if err != nil {
		return err
	}

	train, val, test := r.train, r.val, r.test
	if run.Noise > 0 {
		rng := rand.New(rand.NewSource(seed ^ 0x5a17))
		if train, val, test, err = r.noisy(run.Noise, rng); err != nil {
			return err
		}
	}

	_, inputs := train.x.Dims()
	nw, err := net.Build(inputs, run.Hidden, r.cfg.Classes, r.cfg.LearningRate, net.WithSeed(seed))
	if err != nil {
		return err
	}
	mode := net.Plain()
	if run.KeepProb < 1 {
		if mode, err = net.Dropout(run.KeepProb); err != nil {
			return err
		}
	}

	start := time.Now()
	run.StoppedAt = -1
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		loss, err := r.epoch(nw, train, mode)
		if err != nil {
			return err
		}
		acc, err := nw.Accuracy(test.x, test.y)
		if err != nil {
			return err
		}
		run.Losses = append(run.Losses, loss)
		run.Curve = append(run.Curve, acc)
		run.Seconds = append(run.Seconds, time.Since(start).Seconds())

		if every := r.cfg.LogEvery; every > 0 && (epoch+1)%every == 0 {
			r.logf("%s %s: epoch %d loss=%.6f test_acc=%.4f", run.Search, run.Label(), epoch, loss, acc)
		}
		if stopper.OnEpochEnd(Epoch{Index: epoch, Loss: loss, Accuracy: acc}) {
			run.StoppedAt = epoch
			r.logf("%s %s: stopping early on epoch %d", run.Search, run.Label(), epoch)
			break
		}
	}

	run.TestAccuracy = run.Curve[finalEpoch(*run)]
	if val.x != nil {
		if run.ValAccuracy, err = nw.Accuracy(val.x, val.y); err != nil {
			return err
		}
	}
	return nil
}

// finalEpoch picks the epoch whose test accuracy a run reports. Keep and noise searches
// report the last epoch the stopper accepted; the others report the epoch training
// ended on.
func finalEpoch(run Run) int {
	last := len(run.Curve) - 1
	if run.StoppedAt > 0 && (run.Search == SearchKeep || run.Search == SearchNoise) {
		return run.StoppedAt - 1
	}
	return last
}

// epoch trains one pass over b, in order, and returns the example-weighted mean loss.
func (r *Runner) epoch(nw *net.Network, b batch, mode net.Mode) (float64, error) {
	n, cols := b.x.Dims()
	size := r.cfg.BatchSize
	if size <= 0 || size >= n {
		return nw.TrainStep(b.x, b.y, mode)
	}

	var losses, weights []float64
	for i := 0; i < n; i += size {
		j := min(i+size, n)
		loss, err := nw.TrainStep(b.x.Slice(i, j, 0, cols), b.y[i:j], mode)
		if err != nil {
			return 0, err
		}
		losses = append(losses, loss)
		weights = append(weights, float64(j-i))
	}
	return stat.Mean(losses, weights), nil
}

func (r *Runner) noisy(amount float64, rng *rand.Rand) (train, val, test batch, err error) {
	corrupt := func(d *dataset.Dataset) (batch, error) {
		if d == nil || d.Len() == 0 {
			return batch{}, nil
		}
		c := d.Clone()
		if err := noise.SaltPepper(c.Images, amount, rng); err != nil {
			return batch{}, err
		}
		return flatten(c)
	}
	if train, err = corrupt(r.data.Train); err != nil {
		return
	}
	if val, err = corrupt(r.data.Val); err != nil {
		return
	}
	test, err = corrupt(r.data.Test)
	return
}

func (r *Runner) logf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format+"\n", args...)
}
