package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var csvHeader = []string{"search", "param", "hidden", "epoch", "loss", "test_accuracy", "time_seconds", "stopped", "best"}

// WriteCSV writes one row per (configuration, epoch) of res.
func WriteCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i, run := range res.Runs {
		hidden := make([]string, len(run.Hidden))
		for j, h := range run.Hidden {
			hidden[j] = strconv.Itoa(h)
		}
		for epoch := range run.Losses {
			record := []string{
				string(run.Search),
				strconv.FormatFloat(run.Param, 'g', -1, 64),
				strings.Join(hidden, "-"),
				strconv.Itoa(epoch),
				fmt.Sprintf("%.6f", run.Losses[epoch]),
				fmt.Sprintf("%.6f", run.Curve[epoch]),
				fmt.Sprintf("%.2f", run.Seconds[epoch]),
				strconv.FormatBool(run.StoppedAt == epoch),
				strconv.FormatBool(i == res.Best),
			}
			if err := cw.Write(record); err != nil {
				return errors.Wrap(err, "write record")
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes res to <dir>/<search>.csv, or <dir>/<search>_es.csv for an early
// stopping search, and returns the path.
func SaveCSV(dir string, res *Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create report dir")
	}
	name := string(res.Search)
	if res.EarlyStop {
		name += "_es"
	}
	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create report")
	}
	defer f.Close()

	if err := WriteCSV(f, res); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, f.Close()
}

// Summary prints one line per run of res, marking the best.
func Summary(w io.Writer, res *Result) {
	title := string(res.Search)
	if res.EarlyStop {
		title += " (early stopping)"
	}
	fmt.Fprintf(w, "///// %s /////\n", title)
	for i, run := range res.Runs {
		mark := " "
		if i == res.Best {
			mark = "*"
		}
		stopped := ""
		if run.StoppedAt >= 0 {
			stopped = fmt.Sprintf(" (stopped on epoch %d)", run.StoppedAt)
		}
		fmt.Fprintf(w, "%s %-18s hidden=%v test_acc=%.4f val_acc=%.4f%s\n",
			mark, run.Label(), run.Hidden, run.TestAccuracy, run.ValAccuracy, stopped)
	}
}
