package imaging

import (
	"image"
	"math"
	"math/rand/v2"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Augmenter applies the random training transforms: rotation, zoom and
// horizontal flip. The zero value leaves images untouched.
type Augmenter struct {
	Rotation       float64 // max rotation in degrees, either direction
	Zoom           float64 // zoom range; factors are drawn from [1-Zoom, 1+Zoom]
	HorizontalFlip bool    // flip half of the images left to right
}

// Enabled reports whether any transform is configured.
func (a Augmenter) Enabled() bool {
	return a.Rotation > 0 || a.Zoom > 0 || a.HorizontalFlip
}

// Apply returns a randomly transformed copy of img. rng is not shared
// between goroutines.
func (a Augmenter) Apply(img image.Image, rng *rand.Rand) image.Image {
	if !a.Enabled() {
		return img
	}

	var angle float64
	if a.Rotation > 0 {
		angle = (rng.Float64()*2 - 1) * a.Rotation
	}

	zx, zy := 1.0, 1.0
	if a.Zoom > 0 {
		zx = 1 - a.Zoom + rng.Float64()*2*a.Zoom
		zy = 1 - a.Zoom + rng.Float64()*2*a.Zoom
	}

	flip := a.HorizontalFlip && rng.IntN(2) == 1

	return transform(img, angle, zx, zy, flip)
}

// transform rotates by angle degrees and scales by (zx, zy) around the
// image center, optionally mirroring horizontally. Pixels that fall outside
// the source keep a stretched copy of the image as background.
func transform(img image.Image, angle, zx, zy float64, flip bool) image.Image {
	sb := img.Bounds()
	w, h := sb.Dx(), sb.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, sb, draw.Src, nil)

	rad := angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	sx, sy := zx, zy
	if flip {
		sx = -sx
	}

	// src -> dst: translate to src center, scale, rotate, translate to dst center
	a := cos * sx
	b := -sin * sy
	d := sin * sx
	e := cos * sy
	scx := float64(sb.Min.X) + float64(w)/2
	scy := float64(sb.Min.Y) + float64(h)/2
	dcx := float64(w) / 2
	dcy := float64(h) / 2

	m := f64.Aff3{
		a, b, dcx - (a*scx + b*scy),
		d, e, dcy - (d*scx + e*scy),
	}
	draw.BiLinear.Transform(dst, m, img, sb, draw.Src, nil)
	return dst
}
