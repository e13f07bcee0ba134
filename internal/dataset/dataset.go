// Package dataset holds labelled image collections in the shape the engine consumes.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

// Dataset is a collection of 2-D images with one integer class label each.
type Dataset struct {
	Images []*mat.Dense
	Labels []int
}

// New pairs images with labels. Every image must have the same shape.
func New(images []*mat.Dense, labels []int) (*Dataset, error) {
	if len(images) != len(labels) {
		return nil, errs.Shapef("%d images but %d labels", len(images), len(labels))
	}
	if len(images) > 0 {
		r0, c0 := images[0].Dims()
		for i, img := range images[1:] {
			if r, c := img.Dims(); r != r0 || c != c0 {
				return nil, errs.Shapef("image %d is %dx%d, want %dx%d", i+1, r, c, r0, c0)
			}
		}
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Images)
}

// Pixels returns the number of pixels per image, or 0 for an empty dataset.
func (d *Dataset) Pixels() int {
	if len(d.Images) == 0 {
		return 0
	}
	r, c := d.Images[0].Dims()
	return r * c
}

// Clone returns a deep copy, so the copy's images can be corrupted independently.
func (d *Dataset) Clone() *Dataset {
	images := make([]*mat.Dense, len(d.Images))
	for i, img := range d.Images {
		images[i] = mat.DenseCopyOf(img)
	}
	return &Dataset{
		Images: images,
		Labels: append([]int(nil), d.Labels...),
	}
}

// SplitTail splits off the last n examples. The returned datasets share images with d.
func (d *Dataset) SplitTail(n int) (head, tail *Dataset) {
	if n <= 0 {
		return d, &Dataset{}
	}
	if n >= d.Len() {
		return &Dataset{}, d
	}

	cut := d.Len() - n
	head = &Dataset{
		Images: d.Images[:cut],
		Labels: d.Labels[:cut],
	}
	tail = &Dataset{
		Images: d.Images[cut:],
		Labels: d.Labels[cut:],
	}
	return head, tail
}

// Flatten returns a [Len × Pixels] feature matrix with each image stored row-major.
func (d *Dataset) Flatten() (*mat.Dense, error) {
	if d.Len() == 0 {
		return nil, errs.Shapef("cannot flatten an empty dataset")
	}
	pixels := d.Pixels()
	data := make([]float64, 0, d.Len()*pixels)
	for _, img := range d.Images {
		r, c := img.Dims()
		for i := 0; i < r; i++ {
			data = append(data, img.RawRowView(i)[:c]...)
		}
	}
	return mat.NewDense(d.Len(), pixels, data), nil
}
