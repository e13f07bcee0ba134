package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	idxLabelMagic = 0x00000801
	idxImageMagic = 0x00000803
)

// MNIST file names, tried with and without a .gz suffix.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// LoadMNIST reads the training and test sets from the four IDX files in dir.
// Pixels are scaled from [0, 255] to [0, 1].
func LoadMNIST(dir string) (train, test *Dataset, err error) {
	train, err = LoadIDX(resolve(dir, TrainImagesFile), resolve(dir, TrainLabelsFile))
	if err != nil {
		return nil, nil, errors.Wrap(err, "training set")
	}
	test, err = LoadIDX(resolve(dir, TestImagesFile), resolve(dir, TestLabelsFile))
	if err != nil {
		return nil, nil, errors.Wrap(err, "test set")
	}
	return train, test, nil
}

func resolve(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return path + ".gz"
}

// LoadIDX reads an IDX image file and its IDX label file. Either may be gzip-compressed.
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	images, err := readFile(imagesPath, readImages)
	if err != nil {
		return nil, err
	}
	labels, err := readFile(labelsPath, readLabels)
	if err != nil {
		return nil, err
	}
	return New(images, labels)
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrap(err, "open idx file")
	}
	defer f.Close()

	r, err := maybeGzip(bufio.NewReader(f))
	if err != nil {
		return zero, errors.Wrapf(err, "read %s", path)
	}
	v, err := parse(r)
	if err != nil {
		return zero, errors.Wrapf(err, "parse %s", path)
	}
	return v, nil
}

func maybeGzip(r *bufio.Reader) (io.Reader, error) {
	head, err := r.Peek(2)
	if err != nil {
		return nil, err
	}
	if head[0] == 0x1f && head[1] == 0x8b {
		return gzip.NewReader(r)
	}
	return r, nil
}

func readHeader(r io.Reader, magic uint32, dims int) ([]int, error) {
	var got uint32
	if err := binary.Read(r, binary.BigEndian, &got); err != nil {
		return nil, errors.Wrap(err, "read magic number")
	}
	if got != magic {
		return nil, errors.Errorf("bad magic number %#08x, want %#08x", got, magic)
	}
	header := make([]uint32, dims)
	if err := binary.Read(r, binary.BigEndian, header); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	sizes := make([]int, dims)
	for i, v := range header {
		sizes[i] = int(v)
	}
	return sizes, nil
}

func readImages(r io.Reader) ([]*mat.Dense, error) {
	sizes, err := readHeader(r, idxImageMagic, 3)
	if err != nil {
		return nil, err
	}
	count, rows, cols := sizes[0], sizes[1], sizes[2]
	if rows == 0 || cols == 0 {
		return nil, errors.Errorf("empty image shape %dx%d", rows, cols)
	}

	buf := make([]byte, rows*cols)
	images := make([]*mat.Dense, count)
	for i := range images {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(err, "image %d", i)
		}
		data := make([]float64, len(buf))
		for j, b := range buf {
			data[j] = float64(b) / 255
		}
		images[i] = mat.NewDense(rows, cols, data)
	}
	return images, nil
}

func readLabels(r io.Reader) ([]int, error) {
	sizes, err := readHeader(r, idxLabelMagic, 1)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, sizes[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "labels")
	}
	labels := make([]int, len(buf))
	for i, b := range buf {
		labels[i] = int(b)
	}
	return labels, nil
}
