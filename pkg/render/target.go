package render

import (
	"image"
	"image/color"
)

// BytesPerPixel is the size of one pixel in the fixed target format.
// Targets always use 8-bit-per-channel BGRA, suitable for presentation;
// they are never reallocated to a different format.
const BytesPerPixel = 4

// TargetHandle identifies a render target in a TargetStore. The zero handle
// is never valid.
type TargetHandle uint32

// Target is an owned 2D pixel buffer a camera renders into.
type Target struct {
	Width  int
	Height int
	Pix    []byte // BGRA, row-major, zero-initialized on allocation
}

// NewTarget allocates a zero-initialized target.
func NewTarget(width, height int) *Target {
	return &Target{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// Resize reallocates the backing storage to the new dimensions. The format is
// preserved and old contents are discarded; targets are fully repainted every
// frame, so nothing is copied.
func (t *Target) Resize(width, height int) {
	t.Width = width
	t.Height = height
	t.Pix = make([]byte, width*height*BytesPerPixel)
}

// Clear fills the target with a solid color.
func (t *Target) Clear(c color.RGBA) {
	for i := 0; i < len(t.Pix); i += BytesPerPixel {
		t.Pix[i] = c.B
		t.Pix[i+1] = c.G
		t.Pix[i+2] = c.R
		t.Pix[i+3] = c.A
	}
}

// SetPixel sets a pixel at (x, y). Out-of-bounds writes are dropped.
func (t *Target) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	i := (y*t.Width + x) * BytesPerPixel
	t.Pix[i] = c.B
	t.Pix[i+1] = c.G
	t.Pix[i+2] = c.R
	t.Pix[i+3] = c.A
}

// At returns the color at (x, y), or transparent black if out of bounds.
func (t *Target) At(x, y int) color.RGBA {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return color.RGBA{}
	}
	i := (y*t.Width + x) * BytesPerPixel
	return color.RGBA{R: t.Pix[i+2], G: t.Pix[i+1], B: t.Pix[i], A: t.Pix[i+3]}
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (t *Target) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		t.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage converts the target to a standard Go image.RGBA.
func (t *Target) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			img.SetRGBA(x, y, t.At(x, y))
		}
	}
	return img
}

// TargetStore owns all render targets. Cameras reference targets by handle;
// handle lookups for removed targets fail softly with (nil, false).
type TargetStore struct {
	next    TargetHandle
	targets map[TargetHandle]*Target
}

// NewTargetStore creates an empty store.
func NewTargetStore() *TargetStore {
	return &TargetStore{
		next:    1,
		targets: make(map[TargetHandle]*Target),
	}
}

// Create allocates a new zero-initialized target and returns its handle.
func (s *TargetStore) Create(width, height int) TargetHandle {
	h := s.next
	s.next++
	s.targets[h] = NewTarget(width, height)
	return h
}

// Get returns the target for a handle. A stale handle returns (nil, false).
func (s *TargetStore) Get(h TargetHandle) (*Target, bool) {
	t, ok := s.targets[h]
	return t, ok
}

// Resize resizes the target for a handle in place. Stale handles are a no-op.
func (s *TargetStore) Resize(h TargetHandle, width, height int) {
	if t, ok := s.targets[h]; ok {
		t.Resize(width, height)
	}
}

// Remove destroys the target for a handle. Stale handles are a no-op.
func (s *TargetStore) Remove(h TargetHandle) {
	delete(s.targets, h)
}

// Len returns the number of live targets.
func (s *TargetStore) Len() int {
	return len(s.targets)
}
