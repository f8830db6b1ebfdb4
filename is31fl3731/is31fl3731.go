package is31fl3731

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddr is the I2C address of the 5x5 matrix breakout.
const DefaultAddr uint16 = 0x74

// Opts holds the configuration of a Dev.
type Opts struct {
	// Addr is the I2C address; 0 means DefaultAddr.
	Addr uint16
	// Brightness is the initial global brightness, 0.0..1.0; nil means 1.0.
	Brightness *float64
	// Gamma replaces the built-in gamma curve when set. It must hold 256
	// entries.
	Gamma []uint8
}

// DefaultOpts is the recommended default configuration.
var DefaultOpts = Opts{
	Addr: DefaultAddr,
}

// Dev is a handle to an IS31FL3731 driving the 5x5 RGB matrix.
//
// The bus is not owned: other drivers may use it between calls, and Halt does
// not close it.
type Dev struct {
	c conn.Conn

	// current is the frame bank on display.
	current    int
	isSetup    bool
	state      State
	brightness float64
	gamma      [256]uint8
	buf        [NumPixels]Pixel

	delay func(time.Duration)
}

// New returns a Dev talking to the matrix over bus. No bus traffic happens
// until the first Render.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	d := &Dev{
		c:          &i2c.Dev{Bus: bus, Addr: addr},
		brightness: 1.0,
		gamma:      defaultGamma,
		delay:      time.Sleep,
	}
	if opts.Brightness != nil {
		if err := d.SetBrightness(*opts.Brightness); err != nil {
			return nil, err
		}
	}
	if opts.Gamma != nil {
		if err := d.SetGamma(opts.Gamma); err != nil {
			return nil, err
		}
	}
	d.Clear()
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("IS31FL3731{%s}", d.c)
}

// SetBrightness sets the global brightness, 0.0..1.0, applied to every pixel
// at render time.
func (d *Dev) SetBrightness(v float64) error {
	if err := checkBrightness(v); err != nil {
		return err
	}
	d.brightness = v
	return nil
}

// Brightness returns the global brightness.
func (d *Dev) Brightness() float64 {
	return d.brightness
}

// Frame returns the frame bank currently on display.
func (d *Dev) Frame() int {
	return d.current
}

// compose renders the buffer into the 144 byte color plane of a frame bank.
// Positions no pixel maps to stay 0.
func (d *Dev) compose() [planeSize]byte {
	var out [planeSize]byte
	for i, p := range d.buf {
		scale := d.brightness * p.Brightness
		ir, ig, ib := physicalAddresses(i)
		out[ir] = d.correct(uint8(float64(p.R) * scale))
		out[ig] = d.correct(uint8(float64(p.G) * scale))
		out[ib] = d.correct(uint8(float64(p.B) * scale))
	}
	return out
}

// Render shows the buffer on the matrix.
//
// The chip is set up on the first call. The buffer is written to the frame
// bank not on display, then the display is switched over to it, so a picture
// is never seen half written.
func (d *Dev) Render() error {
	if err := d.setup(); err != nil {
		return err
	}
	next := 1
	if d.current == 1 {
		next = 0
	}
	plane := d.compose()

	if err := d.selectBank(byte(next)); err != nil {
		return err
	}
	for off := 0; off < planeSize; off += chunkSize {
		end := off + chunkSize
		if end > planeSize {
			end = planeSize
		}
		if err := d.write(colorOffset+byte(off), plane[off:end]); err != nil {
			return err
		}
	}
	return d.ShowFrame(next)
}

// ShowFrame puts frame bank 0..8 on display.
func (d *Dev) ShowFrame(frame int) error {
	if frame < 0 || frame > MaxFrame {
		return fmt.Errorf("%w: frame %d, want 0..%d", ErrRange, frame, MaxFrame)
	}
	if err := d.writeRegister(ConfigBank, regFrame, byte(frame)); err != nil {
		return err
	}
	d.current = frame
	return nil
}

// SetMode selects picture, autoplay or audio-play mode.
func (d *Dev) SetMode(mode byte) error {
	switch mode {
	case PictureMode, AutoplayMode, AudioplayMode:
	default:
		return fmt.Errorf("%w: mode 0x%02x", ErrRange, mode)
	}
	return d.writeRegister(ConfigBank, regMode, mode)
}

// Mode reads the display mode register.
func (d *Dev) Mode() (byte, error) {
	return d.readRegister(ConfigBank, regMode)
}

// Awake reports whether the chip is out of software shutdown.
func (d *Dev) Awake() (bool, error) {
	v, err := d.readRegister(ConfigBank, regShutdown)
	if err != nil {
		return false, err
	}
	return v&1 == 1, nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// Draw implements display.Drawer. The part of src that lands inside the
// matrix replaces the buffer pixels at full per-pixel brightness, then the
// buffer is rendered.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	clip := r.Intersect(d.Bounds())
	if clip.Empty() {
		return nil
	}
	im := image.NewNRGBA(d.Bounds())
	draw.Draw(im, r, src, sp, draw.Src)
	for x := clip.Min.X; x < clip.Max.X; x++ {
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			c := im.NRGBAAt(x, y)
			i, _ := logicalIndex(x, y)
			d.buf[i] = Pixel{R: c.R, G: c.G, B: c.B, Brightness: 1.0}
		}
	}
	return d.Render()
}

// Halt puts the chip into software shutdown. The next Render sets it up
// again.
func (d *Dev) Halt() error {
	if err := d.sleep(true); err != nil {
		return err
	}
	d.Reinit()
	return nil
}

var _ display.Drawer = &Dev{}
