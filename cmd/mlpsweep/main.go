package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/FlavioCFOliveira/mlpsearch/internal/net"
	"github.com/FlavioCFOliveira/mlpsearch/internal/sweep"
)

// Hyperparameter search over hidden layer count, hidden width, dropout keep level and
// salt-and-pepper noise level.
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (defaults built in)")
	mnistDir := flag.String("mnist", "", "Directory holding the MNIST IDX files")
	epochs := flag.Int("epochs", 0, "Epochs per configuration")
	batchSize := flag.Int("batch-size", 0, "Mini-batch size (0 keeps the configured value)")
	workers := flag.Int("workers", 0, "Configurations trained concurrently")
	seed := flag.Uint64("seed", 0, "PRNG seed")
	reportDir := flag.String("report-dir", "", "Write one CSV per search into this directory")
	logEvery := flag.Int("log-every", 0, "Log every N epochs")
	earlyStop := flag.Bool("early-stop", false, "Enable early stopping")
	both := flag.Bool("both", false, "Run the plan without and then with early stopping")

	flag.Parse()

	cfg := sweep.DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = sweep.Load(*cfgPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	cfg.ApplyOverrides(sweep.Overrides{
		Epochs:    *epochs,
		BatchSize: *batchSize,
		Workers:   *workers,
		Seed:      *seed,
		MNISTDir:  *mnistDir,
		ReportDir: *reportDir,
		LogEvery:  *logEvery,
		EarlyStop: *earlyStop,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	data, err := sweep.LoadData(cfg)
	if err != nil {
		log.Fatalf("load data: %v", err)
	}
	log.Printf("train=%d val=%d test=%d pixels=%d", data.Train.Len(), data.Val.Len(), data.Test.Len(), data.Train.Pixels())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := sweep.NewRunner(cfg, data, os.Stdout)
	if err != nil {
		log.Fatalf("prepare searches: %v", err)
	}
	var reports []*sweep.Report
	if *both {
		plain, stopped, err := runner.Both(ctx)
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}
		reports = append(reports, plain, stopped)
	} else {
		report, err := runner.All(ctx)
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}
		reports = append(reports, report)
	}

	fmt.Println()
	for _, report := range reports {
		for _, res := range report.Results() {
			sweep.Summary(os.Stdout, res)
			if cfg.ReportDir == "" {
				continue
			}
			path, err := sweep.SaveCSV(cfg.ReportDir, res)
			if err != nil {
				log.Fatalf("write report: %v", err)
			}
			log.Printf("wrote %s", path)
		}
	}

	best := reports[0].Keep.BestRun()
	nw, err := net.Build(data.Train.Pixels(), best.Hidden, cfg.Classes, cfg.LearningRate, net.WithSeed(cfg.Seed))
	if err != nil {
		log.Fatalf("build best architecture: %v", err)
	}
	fmt.Println("\nBest architecture:")
	nw.Summary(os.Stdout)
}
