package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeImages(t *testing.T, rows, cols int, pixels [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	hdr := []uint32{idxImageMagic, uint32(len(pixels)), uint32(rows), uint32(cols)}
	require.NoError(t, binary.Write(&buf, binary.BigEndian, hdr))
	for _, p := range pixels {
		buf.Write(p)
	}
	return buf.Bytes()
}

func encodeLabels(t *testing.T, labels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxLabelMagic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func gzipped(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestLoadIDX(t *testing.T) {
	images := encodeImages(t, 2, 2, [][]byte{{0, 255, 51, 0}, {255, 255, 0, 102}})
	labels := encodeLabels(t, []byte{7, 3})

	for _, compress := range []bool{false, true} {
		name := "raw"
		if compress {
			name = "gzip"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			img, lbl := images, labels
			if compress {
				img, lbl = gzipped(t, img), gzipped(t, lbl)
			}
			d, err := LoadIDX(writeFile(t, dir, "img", img), writeFile(t, dir, "lbl", lbl))
			require.NoError(t, err)

			assert.Equal(t, []int{7, 3}, d.Labels)
			assert.Equal(t, 1.0, d.Images[0].At(0, 1))
			assert.InDelta(t, 0.2, d.Images[0].At(1, 0), 1e-12)
			assert.InDelta(t, 0.4, d.Images[1].At(1, 1), 1e-12)
		})
	}
}

func TestLoadIDXErrors(t *testing.T) {
	dir := t.TempDir()
	images := writeFile(t, dir, "img", encodeImages(t, 2, 2, [][]byte{{0, 0, 0, 0}}))

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadIDX(filepath.Join(dir, "nope"), images)
		assert.Error(t, err)
	})
	t.Run("swapped files", func(t *testing.T) {
		labels := writeFile(t, dir, "lbl", encodeLabels(t, []byte{1}))
		_, err := LoadIDX(labels, images)
		assert.ErrorContains(t, err, "bad magic number")
	})
	t.Run("truncated", func(t *testing.T) {
		b := encodeImages(t, 2, 2, [][]byte{{0, 0, 0, 0}})
		short := writeFile(t, dir, "short", b[:len(b)-1])
		labels := writeFile(t, dir, "lbl1", encodeLabels(t, []byte{1}))
		_, err := LoadIDX(short, labels)
		assert.Error(t, err)
	})
	t.Run("count mismatch", func(t *testing.T) {
		labels := writeFile(t, dir, "lbl2", encodeLabels(t, []byte{1, 2}))
		_, err := LoadIDX(images, labels)
		assert.Error(t, err)
	})
}

func TestLoadMNIST(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, TrainImagesFile+".gz", gzipped(t, encodeImages(t, 1, 2, [][]byte{{0, 255}, {255, 0}})))
	writeFile(t, dir, TrainLabelsFile, encodeLabels(t, []byte{1, 0}))
	writeFile(t, dir, TestImagesFile, encodeImages(t, 1, 2, [][]byte{{255, 255}}))
	writeFile(t, dir, TestLabelsFile+".gz", gzipped(t, encodeLabels(t, []byte{4})))

	train, test, err := LoadMNIST(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, train.Len())
	assert.Equal(t, 1, test.Len())
	assert.Equal(t, []int{4}, test.Labels)
}
