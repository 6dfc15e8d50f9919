package render

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/common"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// RasterSurface is an in-memory overlay surface. It is safe to Snapshot from another
// goroutine while the renderer paints.
type RasterSurface struct {
	mu     sync.RWMutex
	canvas *image.RGBA
	draws  int
}

func NewRasterSurface() *RasterSurface {
	return &RasterSurface{canvas: image.NewRGBA(image.Rectangle{})}
}

func (r *RasterSurface) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.canvas.Pix)
}

// Draw scales src into dst, composited over what is already painted. Smoothing uses
// bilinear filtering, otherwise nearest neighbour.
func (r *RasterSurface) Draw(src image.Image, dst common.Rect, smooth bool) {
	bounds := src.Bounds()
	if bounds.Empty() || dst.Empty() {
		return
	}

	scaleX := dst.Width / float64(bounds.Dx())
	scaleY := dst.Height / float64(bounds.Dy())
	transform := f64.Aff3{
		scaleX, 0, dst.X - float64(bounds.Min.X)*scaleX,
		0, scaleY, dst.Y - float64(bounds.Min.Y)*scaleY,
	}

	var interpolator xdraw.Interpolator = xdraw.NearestNeighbor
	if smooth {
		interpolator = xdraw.BiLinear
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	interpolator.Transform(r.canvas, transform, src, bounds, draw.Over, nil)
	r.draws++
}

func (r *RasterSurface) Resize(size common.Size) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.canvas = image.NewRGBA(image.Rect(0, 0, max(size.Width, 0), max(size.Height, 0)))
}

func (r *RasterSurface) Size() common.Size {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return common.Size{Height: r.canvas.Rect.Dy(), Width: r.canvas.Rect.Dx()}
}

// Snapshot copies the current surface contents.
func (r *RasterSurface) Snapshot() *image.RGBA {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := image.NewRGBA(r.canvas.Rect)
	copy(snapshot.Pix, r.canvas.Pix)

	return snapshot
}

// DrawCount is the number of images painted since the surface was created.
func (r *RasterSurface) DrawCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.draws
}

func (r *RasterSurface) WritePNG(w io.Writer) error {
	snapshot := r.Snapshot()
	if snapshot.Rect.Empty() {
		return errors.New("surface has no size")
	}

	if encodeErr := png.Encode(w, snapshot); encodeErr != nil {
		return errors.Wrap(encodeErr, "failed to encode surface as PNG")
	}

	return nil
}
