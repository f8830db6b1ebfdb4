package pattern

import (
	"math"
	"sort"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/breakout-garden/is31fl3731"
)

// Canvas is the part of the matrix driver a pattern paints on.
type Canvas interface {
	SetPixelBrightness(x, y, r, g, b int, brightness float64) error
	SetMultiple(idx []is31fl3731.Index, from, to is31fl3731.Color) error
	SetAll(r, g, b int, brightness float64) error
}

// Pattern paints one frame at time t since start. env holds the last
// barometer sample, or nil when there is none.
type Pattern interface {
	Name() string
	Paint(c Canvas, t time.Duration, env *physic.Env) error
}

type Registry struct{ m map[string]Pattern }

func NewRegistry() *Registry { return &Registry{m: map[string]Pattern{}} }

// Default returns a registry holding every built-in pattern.
func Default(gaugeMin, gaugeMax float64) *Registry {
	r := NewRegistry()
	r.Register(Rainbow{Speed: 0.2})
	r.Register(Sweep{Speed: 0.1})
	r.Register(Gauge{MinHPa: gaugeMin, MaxHPa: gaugeMax})
	return r
}

func (r *Registry) Register(p Pattern) {
	if p == nil {
		return
	}
	r.m[p.Name()] = p
}

func (r *Registry) Get(name string) (Pattern, bool) { p, ok := r.m[name]; return p, ok }

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Wheel maps a hue in [0, 1) to a fully saturated color.
func Wheel(h float64) is31fl3731.Color {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	h *= 6
	switch {
	case h < 1.:
		return is31fl3731.Color{R: 255, G: int(255 * h)}
	case h < 2.:
		return is31fl3731.Color{R: int(255 * (2 - h)), G: 255}
	case h < 3.:
		return is31fl3731.Color{G: 255, B: int(255 * (h - 2))}
	case h < 4.:
		return is31fl3731.Color{G: int(255 * (4 - h)), B: 255}
	case h < 5.:
		return is31fl3731.Color{R: int(255 * (h - 4)), B: 255}
	default:
		return is31fl3731.Color{R: 255, B: int(255 * (6 - h))}
	}
}

// Rainbow rotates the color wheel diagonally across the matrix.
type Rainbow struct {
	Speed float64 // turns per second
}

func (Rainbow) Name() string { return "rainbow" }

func (p Rainbow) Paint(c Canvas, t time.Duration, _ *physic.Env) error {
	base := t.Seconds() * p.Speed
	for x := 0; x < is31fl3731.Width; x++ {
		for y := 0; y < is31fl3731.Height; y++ {
			col := Wheel(base + float64(x+y)/float64(is31fl3731.Width+is31fl3731.Height))
			if err := c.SetPixelBrightness(x, y, col.R, col.G, col.B, 1.0); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sweep fades across every pixel, row by row, between two opposite hues.
type Sweep struct {
	Speed float64
}

func (Sweep) Name() string { return "sweep" }

func (p Sweep) Paint(c Canvas, t time.Duration, _ *physic.Env) error {
	h := t.Seconds() * p.Speed
	idx := make([]is31fl3731.Index, is31fl3731.NumPixels)
	for i := range idx {
		idx[i] = is31fl3731.Linear(i)
	}
	return c.SetMultiple(idx, Wheel(h), Wheel(h+0.5))
}

// Gauge shows the last pressure reading as a bar filling the matrix row by
// row, green at MinHPa to red at MaxHPa.
type Gauge struct {
	MinHPa, MaxHPa float64
}

func (Gauge) Name() string { return "gauge" }

// Level returns how many pixels are lit for a pressure in hPa.
func (p Gauge) Level(hpa float64) int {
	if p.MaxHPa <= p.MinHPa {
		return 0
	}
	f := (hpa - p.MinHPa) / (p.MaxHPa - p.MinHPa)
	f = math.Max(0, math.Min(1, f))
	return int(math.Round(f * is31fl3731.NumPixels))
}

func (p Gauge) Paint(c Canvas, _ time.Duration, env *physic.Env) error {
	if env == nil {
		// No barometer: dim blue.
		return c.SetAll(0, 0, 64, 0.25)
	}
	if err := c.SetAll(0, 0, 0, 1.0); err != nil {
		return err
	}
	n := p.Level(float64(env.Pressure) / float64(physic.Pascal) / 100)
	if n == 0 {
		return nil
	}
	idx := make([]is31fl3731.Index, n)
	for i := range idx {
		idx[i] = is31fl3731.Linear(i)
	}
	to := is31fl3731.Color{R: 255 * n / is31fl3731.NumPixels, G: 255 - 255*n/is31fl3731.NumPixels}
	return c.SetMultiple(idx, is31fl3731.Color{G: 255}, to)
}
