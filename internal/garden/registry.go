package garden

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/coreman2200/breakout-garden/is31fl3731"
)

// Addresses of the breakouts this board knows about.
const (
	AddrBH1750     uint16 = 0x23
	AddrHTU21D     uint16 = 0x40
	AddrSCD4x      uint16 = 0x62
	AddrICP10125   uint16 = 0x63
	AddrIS31FL3731 uint16 = 0x74
	AddrBMP180     uint16 = 0x77
)

// Known names every address Probe looks at.
var Known = map[uint16]string{
	AddrBH1750:     "BH1750",
	AddrHTU21D:     "HTU21D",
	AddrSCD4x:      "SCD4x",
	AddrICP10125:   "ICP10125",
	AddrIS31FL3731: "IS31FL3731",
	AddrBMP180:     "BMP180",
}

// seaLevelHPa is the reference pressure for altitude.
const seaLevelHPa = 1013.25

// Barometer is a pressure sensor as exposed by periph drivers.
type Barometer interface {
	fmt.Stringer
	Sense(e *physic.Env) error
	Halt() error
}

var openBarometer = func(b i2c.Bus, addr uint16) (Barometer, error) {
	d, err := bmxx80.NewI2C(b, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Sample is one barometer reading.
type Sample struct {
	At          time.Time
	Env         physic.Env
	TempC       float64
	PressureHPa float64
	AltitudeM   float64
}

func newSample(at time.Time, e physic.Env) Sample {
	hpa := float64(e.Pressure) / float64(physic.Pascal) / 100
	return Sample{
		At:          at,
		Env:         e,
		TempC:       e.Temperature.Celsius(),
		PressureHPa: hpa,
		AltitudeM:   Altitude(hpa),
	}
}

// Altitude converts a pressure in hPa to meters above sea level with the
// international barometric formula.
func Altitude(hpa float64) float64 {
	return 44330 * (1 - math.Pow(hpa/seaLevelHPa, 1/5.255))
}

// Probe returns the known addresses that acknowledge a one byte read.
func Probe(bus i2c.Bus) []uint16 {
	var found []uint16
	for addr := range Known {
		var b [1]byte
		if err := bus.Tx(addr, nil, b[:]); err == nil {
			found = append(found, addr)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found
}

// Registry holds the peripherals found on the bus, keyed by address. Whether
// a peripheral is there is decided once, when the registry is built.
type Registry struct {
	present map[uint16]bool
	matrix  *is31fl3731.Dev
	baro    Barometer
}

// NewRegistry attaches a driver to every present address that has one here.
// A driver failing to attach is logged and leaves its peripheral present but
// unusable; it does not fail the registry.
func NewRegistry(bus i2c.Bus, present []uint16, mopts *is31fl3731.Opts) (*Registry, error) {
	r := &Registry{present: map[uint16]bool{}}
	for _, addr := range present {
		r.present[addr] = true
		l := log.With().Hex("addr", []byte{byte(addr)}).Str("device", Known[addr]).Logger()
		switch addr {
		case AddrIS31FL3731:
			o := is31fl3731.DefaultOpts
			if mopts != nil {
				o = *mopts
			}
			o.Addr = addr
			d, err := is31fl3731.New(bus, &o)
			if err != nil {
				return nil, err
			}
			r.matrix = d
			l.Info().Msg("matrix attached")
		case AddrBMP180:
			b, err := openBarometer(bus, addr)
			if err != nil {
				l.Warn().Err(err).Msg("barometer attach failed")
				continue
			}
			r.baro = b
			l.Info().Str("driver", b.String()).Msg("barometer attached")
		default:
			l.Info().Msg("present, no driver")
		}
	}
	return r, nil
}

// Present reports whether addr answered when the registry was built.
func (r *Registry) Present(addr uint16) bool { return r.present[addr] }

// Addrs lists the present addresses in ascending order.
func (r *Registry) Addrs() []uint16 {
	out := make([]uint16, 0, len(r.present))
	for a := range r.present {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Matrix returns the LED matrix driver, if attached.
func (r *Registry) Matrix() (*is31fl3731.Dev, bool) { return r.matrix, r.matrix != nil }

// Barometer returns the pressure sensor, if attached.
func (r *Registry) Barometer() (Barometer, bool) { return r.baro, r.baro != nil }

// Sample reads the barometer.
func (r *Registry) Sample() (Sample, error) {
	if r.baro == nil {
		return Sample{}, fmt.Errorf("garden: no barometer attached")
	}
	var e physic.Env
	if err := r.baro.Sense(&e); err != nil {
		return Sample{}, fmt.Errorf("garden: %s: %w", r.baro, err)
	}
	return newSample(time.Now(), e), nil
}

// Halt blanks the matrix and puts every attached driver to rest.
func (r *Registry) Halt() error {
	var first error
	if r.matrix != nil {
		r.matrix.Clear()
		if err := r.matrix.Render(); err != nil && first == nil {
			first = err
		}
		if err := r.matrix.Halt(); err != nil && first == nil {
			first = err
		}
	}
	if r.baro != nil {
		if err := r.baro.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
