package garden

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/breakout-garden/internal/pattern"
	"github.com/coreman2200/breakout-garden/is31fl3731"
)

// ackBus acknowledges transactions to a fixed set of addresses.
type ackBus struct {
	acks map[uint16]bool
	txs  map[uint16]int
}

func newAckBus(addrs ...uint16) *ackBus {
	b := &ackBus{acks: map[uint16]bool{}, txs: map[uint16]int{}}
	for _, a := range addrs {
		b.acks[a] = true
	}
	return b
}

func (b *ackBus) String() string { return "ack" }

func (b *ackBus) Tx(addr uint16, w, r []byte) error {
	if !b.acks[addr] {
		return errors.New("nack")
	}
	b.txs[addr]++
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (b *ackBus) SetSpeed(physic.Frequency) error { return nil }

type fakeBaro struct {
	env    physic.Env
	err    error
	halted bool
}

func (f *fakeBaro) String() string { return "fake" }

func (f *fakeBaro) Sense(e *physic.Env) error {
	if f.err != nil {
		return f.err
	}
	*e = f.env
	return nil
}

func (f *fakeBaro) Halt() error { f.halted = true; return nil }

func withBarometer(t *testing.T, b Barometer) {
	t.Helper()
	old := openBarometer
	openBarometer = func(i2c.Bus, uint16) (Barometer, error) { return b, nil }
	t.Cleanup(func() { openBarometer = old })
}

type fakePreview struct {
	last image.Image
}

func (f *fakePreview) String() string          { return "preview" }
func (f *fakePreview) Halt() error             { return nil }
func (f *fakePreview) ColorModel() color.Model { return color.NRGBAModel }
func (f *fakePreview) Bounds() image.Rectangle { return image.Rect(0, 0, is31fl3731.NumPixels, 1) }
func (f *fakePreview) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.last = src
	return nil
}

func TestProbe(t *testing.T) {
	bus := newAckBus(AddrBMP180, AddrIS31FL3731, AddrBH1750, 0x10)
	assert.Equal(t, []uint16{AddrBH1750, AddrIS31FL3731, AddrBMP180}, Probe(bus))
	assert.Empty(t, Probe(newAckBus()))
}

func TestNewRegistry(t *testing.T) {
	baro := &fakeBaro{}
	withBarometer(t, baro)
	bus := newAckBus(AddrIS31FL3731, AddrBMP180, AddrHTU21D)

	r, err := NewRegistry(bus, Probe(bus), nil)
	require.NoError(t, err)
	assert.Equal(t, []uint16{AddrHTU21D, AddrIS31FL3731, AddrBMP180}, r.Addrs())
	assert.True(t, r.Present(AddrHTU21D))
	assert.False(t, r.Present(AddrSCD4x))

	m, ok := r.Matrix()
	require.True(t, ok)
	require.NotNil(t, m)
	b, ok := r.Barometer()
	require.True(t, ok)
	assert.Same(t, baro, b)
}

func TestNewRegistry_MatrixOpts(t *testing.T) {
	bus := newAckBus(AddrIS31FL3731)
	dim, over := 0.3, 2.0
	r, err := NewRegistry(bus, []uint16{AddrIS31FL3731}, &is31fl3731.Opts{Brightness: &dim})
	require.NoError(t, err)
	m, ok := r.Matrix()
	require.True(t, ok)
	assert.Equal(t, 0.3, m.Brightness())

	_, err = NewRegistry(bus, []uint16{AddrIS31FL3731}, &is31fl3731.Opts{Brightness: &over})
	assert.ErrorIs(t, err, is31fl3731.ErrRange)
}

func TestNewRegistry_BarometerAttachFails(t *testing.T) {
	// A BMP180 that answers zeros has no valid chip id.
	bus := newAckBus(AddrBMP180)
	r, err := NewRegistry(bus, []uint16{AddrBMP180}, nil)
	require.NoError(t, err)
	assert.True(t, r.Present(AddrBMP180))
	_, ok := r.Barometer()
	assert.False(t, ok)
	_, err = r.Sample()
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	withBarometer(t, &fakeBaro{env: physic.Env{
		Temperature: physic.ZeroCelsius + 20*physic.Kelvin,
		Pressure:    101325 * physic.Pascal,
	}})
	r, err := NewRegistry(newAckBus(), []uint16{AddrBMP180}, nil)
	require.NoError(t, err)

	s, err := r.Sample()
	require.NoError(t, err)
	assert.InDelta(t, 20, s.TempC, 0.001)
	assert.InDelta(t, 1013.25, s.PressureHPa, 0.001)
	assert.InDelta(t, 0, s.AltitudeM, 0.01)
}

func TestSample_Error(t *testing.T) {
	cause := errors.New("busy")
	withBarometer(t, &fakeBaro{err: cause})
	r, err := NewRegistry(newAckBus(), []uint16{AddrBMP180}, nil)
	require.NoError(t, err)
	_, err = r.Sample()
	assert.ErrorIs(t, err, cause)
}

func TestAltitude(t *testing.T) {
	assert.InDelta(t, 0, Altitude(1013.25), 0.001)
	assert.InDelta(t, 988.7, Altitude(900), 1)
	assert.Less(t, Altitude(1030), 0.0)
}

func TestLooperFrame(t *testing.T) {
	bus := newAckBus(AddrIS31FL3731)
	r, err := NewRegistry(bus, []uint16{AddrIS31FL3731}, nil)
	require.NoError(t, err)
	prev := &fakePreview{}
	l := NewLooper(r, pattern.Rainbow{Speed: 1}, 0, 0, prev)

	require.NoError(t, l.Frame(0))
	require.NoError(t, l.Frame(time.Second))
	assert.Equal(t, uint64(2), l.Frames())

	m, _ := r.Matrix()
	assert.Equal(t, 0, m.Frame())
	// 11 setup transactions plus 8 per render.
	assert.Equal(t, 11+2*8, bus.txs[AddrIS31FL3731])

	require.NotNil(t, prev.last)
	assert.Equal(t, image.Rect(0, 0, is31fl3731.NumPixels, 1), prev.last.Bounds())
}

func TestLooperFrame_NoMatrix(t *testing.T) {
	r, err := NewRegistry(newAckBus(), nil, nil)
	require.NoError(t, err)
	l := NewLooper(r, pattern.Rainbow{}, 10, 0, nil)
	require.NoError(t, l.Frame(0))
	assert.Equal(t, uint64(0), l.Frames())
}

func TestLooperGaugeUsesSample(t *testing.T) {
	withBarometer(t, &fakeBaro{env: physic.Env{Pressure: 105000 * physic.Pascal}})
	bus := newAckBus(AddrIS31FL3731)
	r, err := NewRegistry(bus, []uint16{AddrIS31FL3731, AddrBMP180}, nil)
	require.NoError(t, err)
	l := NewLooper(r, pattern.Gauge{MinHPa: 1000, MaxHPa: 1040}, 10, time.Second, nil)

	_, ok := l.Last()
	assert.False(t, ok)
	_, err = l.Sample()
	require.NoError(t, err)
	s, ok := l.Last()
	require.True(t, ok)
	assert.InDelta(t, 1050, s.PressureHPa, 0.001)

	require.NoError(t, l.Frame(0))
	m, _ := r.Matrix()
	p, err := m.Pixel(4, 4)
	require.NoError(t, err)
	assert.NotZero(t, p.R)
}

func TestLooperRunStops(t *testing.T) {
	withBarometer(t, &fakeBaro{})
	bus := newAckBus(AddrIS31FL3731)
	r, err := NewRegistry(bus, []uint16{AddrIS31FL3731, AddrBMP180}, nil)
	require.NoError(t, err)
	l := NewLooper(r, pattern.Sweep{Speed: 1}, 100, 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.NotZero(t, l.Frames())
	_, ok := l.Last()
	assert.True(t, ok)
}

func TestRegistryHalt(t *testing.T) {
	baro := &fakeBaro{}
	withBarometer(t, baro)
	bus := newAckBus(AddrIS31FL3731)
	r, err := NewRegistry(bus, []uint16{AddrIS31FL3731, AddrBMP180}, nil)
	require.NoError(t, err)
	m, _ := r.Matrix()
	require.NoError(t, m.SetAll(255, 255, 255, 1))

	require.NoError(t, r.Halt())
	assert.True(t, baro.halted)
	p, err := m.Pixel(0, 0)
	require.NoError(t, err)
	assert.Equal(t, is31fl3731.Pixel{Brightness: 1}, p)
	assert.Equal(t, is31fl3731.Uninitialized, m.State())
}
