package is31fl3731

import (
	"fmt"
	"image"
	"image/color"
)

// Pixel is one entry of the frame buffer. Brightness scales the color at
// render time, on top of the global brightness.
type Pixel struct {
	R, G, B    uint8
	Brightness float64
}

var blank = Pixel{Brightness: 1.0}

// Color is an RGB triple in 0..255.
type Color struct {
	R, G, B int
}

// Index addresses a pixel for SetMultiple, either by coordinate or by linear
// index. Use XY or Linear to build one.
type Index struct {
	X, Y int
}

// XY addresses the pixel at column x, row y.
func XY(x, y int) Index { return Index{X: x, Y: y} }

// Linear addresses pixel i of 0..24, counting along rows.
func Linear(i int) Index {
	if i < 0 || i >= NumPixels {
		return Index{X: -1, Y: -1}
	}
	return Index{X: i % Width, Y: i / Width}
}

func checkChannel(v float64) error {
	if v < 0 || v >= 256 {
		return fmt.Errorf("%w: channel value %v, want 0..255", ErrRange, v)
	}
	return nil
}

func checkBrightness(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: brightness %v, want 0.0..1.0", ErrRange, v)
	}
	return nil
}

// newPixel truncates the channels toward zero once they have been validated.
func newPixel(r, g, b, brightness float64) (Pixel, error) {
	for _, c := range [...]float64{r, g, b} {
		if err := checkChannel(c); err != nil {
			return Pixel{}, err
		}
	}
	if err := checkBrightness(brightness); err != nil {
		return Pixel{}, err
	}
	return Pixel{R: uint8(r), G: uint8(g), B: uint8(b), Brightness: brightness}, nil
}

// SetPixel sets the pixel at x, y at full brightness.
//
// Nothing is sent to the device until Render.
func (d *Dev) SetPixel(x, y, r, g, b int) error {
	return d.SetPixelBrightness(x, y, r, g, b, 1.0)
}

// SetPixelBrightness sets the pixel at x, y with its own brightness
// (0.0..1.0).
func (d *Dev) SetPixelBrightness(x, y, r, g, b int, brightness float64) error {
	i, err := logicalIndex(x, y)
	if err != nil {
		return fmt.Errorf("%w: (%d, %d)", err, x, y)
	}
	p, err := newPixel(float64(r), float64(g), float64(b), brightness)
	if err != nil {
		return err
	}
	d.buf[i] = p
	return nil
}

// SetAll sets every pixel to the same color and brightness.
func (d *Dev) SetAll(r, g, b int, brightness float64) error {
	p, err := newPixel(float64(r), float64(g), float64(b), brightness)
	if err != nil {
		return err
	}
	for i := range d.buf {
		d.buf[i] = p
	}
	return nil
}

// SetMultiple paints the pixels in idx with a linear sweep from one color
// toward another: pixel i of n gets from + (to-from)*i/n. Pass from as to for
// a solid fill. Either every pixel is updated or, on error, none is.
func (d *Dev) SetMultiple(idx []Index, from, to Color) error {
	if len(idx) == 0 {
		return ErrEmptyInput
	}
	n := float64(len(idx))
	stepR := float64(to.R-from.R) / n
	stepG := float64(to.G-from.G) / n
	stepB := float64(to.B-from.B) / n

	type update struct {
		i int
		p Pixel
	}
	pending := make([]update, 0, len(idx))
	for step, at := range idx {
		i, err := logicalIndex(at.X, at.Y)
		if err != nil {
			return fmt.Errorf("%w: (%d, %d) at position %d", err, at.X, at.Y, step)
		}
		s := float64(step)
		p, err := newPixel(
			float64(from.R)+stepR*s,
			float64(from.G)+stepG*s,
			float64(from.B)+stepB*s,
			1.0,
		)
		if err != nil {
			return err
		}
		pending = append(pending, update{i, p})
	}
	for _, u := range pending {
		d.buf[u.i] = u.p
	}
	return nil
}

// Pixel returns the buffered pixel at x, y, as last set. Gamma and global
// brightness are not applied.
func (d *Dev) Pixel(x, y int) (Pixel, error) {
	i, err := logicalIndex(x, y)
	if err != nil {
		return Pixel{}, fmt.Errorf("%w: (%d, %d)", err, x, y)
	}
	return d.buf[i], nil
}

// Clear blanks the buffer and rewinds frame tracking to frame 0.
//
// Call Render afterwards to update the display.
func (d *Dev) Clear() {
	d.current = 0
	for i := range d.buf {
		d.buf[i] = blank
	}
}

// Image returns the buffer in matrix coordinates, per-pixel brightness
// folded into the color.
func (d *Dev) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, Width, Height))
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			i, _ := logicalIndex(x, y)
			p := d.buf[i]
			im.SetNRGBA(x, y, color.NRGBA{
				R: uint8(float64(p.R) * p.Brightness),
				G: uint8(float64(p.G) * p.Brightness),
				B: uint8(float64(p.B) * p.Brightness),
				A: 255,
			})
		}
	}
	return im
}
