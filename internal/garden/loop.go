package garden

import (
	"context"
	"image"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/breakout-garden/internal/pattern"
	"github.com/coreman2200/breakout-garden/is31fl3731"
)

const DFLT_FPS = 30

// Looper paints a pattern on the matrix at a fixed frame rate and samples the
// barometer on a slower ticker. The matrix driver does no locking of its own;
// every paint+render and every sample swap happens under mu.
type Looper struct {
	mu       sync.Mutex
	reg      *Registry
	pat      pattern.Pattern
	preview  display.Drawer
	fps      int
	interval time.Duration
	last     *Sample
	start    time.Time
	frames   uint64
}

// NewLooper returns a Looper over the peripherals in reg. preview, when not
// nil, is fed a copy of every rendered frame as a single row of pixels.
func NewLooper(reg *Registry, pat pattern.Pattern, fps int, interval time.Duration, preview display.Drawer) *Looper {
	if fps <= 0 {
		fps = DFLT_FPS
	}
	return &Looper{
		reg:      reg,
		pat:      pat,
		preview:  preview,
		fps:      fps,
		interval: interval,
		start:    time.Now(),
	}
}

// SetPattern swaps the active pattern.
func (l *Looper) SetPattern(p pattern.Pattern) {
	l.mu.Lock()
	l.pat = p
	l.mu.Unlock()
}

// Last returns the most recent barometer sample.
func (l *Looper) Last() (Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return Sample{}, false
	}
	return *l.last, true
}

// Frames returns how many frames were rendered.
func (l *Looper) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Frame paints and renders one frame at time t since start.
func (l *Looper) Frame(t time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.reg.Matrix()
	if !ok || l.pat == nil {
		return nil
	}
	var env *physic.Env
	if l.last != nil {
		e := l.last.Env
		env = &e
	}
	if err := l.pat.Paint(m, t, env); err != nil {
		return err
	}
	if err := m.Render(); err != nil {
		return err
	}
	l.frames++
	if l.preview != nil {
		return l.preview.Draw(l.preview.Bounds(), strip(m), image.Point{})
	}
	return nil
}

// Sample reads the barometer and keeps the result for the gauge.
func (l *Looper) Sample() (Sample, error) {
	s, err := l.reg.Sample()
	if err != nil {
		return Sample{}, err
	}
	l.mu.Lock()
	l.last = &s
	l.mu.Unlock()
	return s, nil
}

// Run loops until ctx is done or the process is interrupted. Frame and sample
// errors are logged and the loop carries on.
func (l *Looper) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(l.fps))
	defer ticker.Stop()

	var samples <-chan time.Time
	if _, ok := l.reg.Barometer(); ok && l.interval > 0 {
		st := time.NewTicker(l.interval)
		defer st.Stop()
		samples = st.C
		l.logSample()
	}

	for {
		select {
		case <-ticker.C:
			if err := l.Frame(time.Since(l.start)); err != nil {
				log.Warn().Err(err).Msg("frame failed")
			}
		case <-samples:
			l.logSample()
		case <-ctx.Done():
			log.Info().Uint64("frames", l.Frames()).Msg("loop stopped")
			return
		}
	}
}

func (l *Looper) logSample() {
	s, err := l.Sample()
	if err != nil {
		log.Warn().Err(err).Msg("sample failed")
		return
	}
	log.Info().
		Float64("temp_c", s.TempC).
		Float64("pressure_hpa", s.PressureHPa).
		Float64("altitude_m", s.AltitudeM).
		Msg("barometer")
}

// strip flattens the matrix buffer row by row into one line of pixels.
func strip(m *is31fl3731.Dev) *image.NRGBA {
	src := m.Image()
	out := image.NewNRGBA(image.Rect(0, 0, is31fl3731.NumPixels, 1))
	for y := 0; y < is31fl3731.Height; y++ {
		for x := 0; x < is31fl3731.Width; x++ {
			out.SetNRGBA(y*is31fl3731.Width+x, 0, src.NRGBAAt(x, y))
		}
	}
	return out
}
