package is31fl3731

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the setup progress of a Dev.
type State int

const (
	Uninitialized State = iota
	Resetting
	ConfiguringMode
	EnablingLEDs
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resetting:
		return "resetting"
	case ConfiguringMode:
		return "configuring-mode"
	case EnablingLEDs:
		return "enabling-leds"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// resetPulse is how long the chip is held in software shutdown on reset.
const resetPulse = 10 * time.Microsecond

// setup runs the one-time initialisation sequence unless it already
// completed. On failure the Dev stays not set up and the next call starts
// over.
func (d *Dev) setup() error {
	if d.isSetup {
		return nil
	}
	d.state = Resetting
	if err := d.reset(); err != nil {
		var ioErr *DeviceIOError
		if errors.As(err, &ioErr) {
			ioErr.Hint = wiringHint
		}
		return err
	}

	d.state = ConfiguringMode
	if err := d.selectBank(ConfigBank); err != nil {
		return err
	}
	if err := d.write(regMode, []byte{PictureMode}); err != nil {
		return err
	}
	if err := d.write(regAudioSync, []byte{0}); err != nil {
		return err
	}

	d.state = EnablingLEDs
	for _, bank := range [...]byte{1, 0} {
		if err := d.selectBank(bank); err != nil {
			return err
		}
		if err := d.write(enableOffset, enableMask[:]); err != nil {
			return err
		}
	}

	d.state = Ready
	d.isSetup = true
	log.Debug().Str("dev", d.String()).Msg("is31fl3731 ready")
	return nil
}

// reset pulses the shutdown register off then on.
func (d *Dev) reset() error {
	if err := d.sleep(true); err != nil {
		return err
	}
	d.delay(resetPulse)
	return d.sleep(false)
}

// sleep drives the shutdown register. The register is active low: 0 puts the
// chip to sleep, 1 wakes it.
func (d *Dev) sleep(asleep bool) error {
	v := byte(1)
	if asleep {
		v = 0
	}
	return d.writeRegister(ConfigBank, regShutdown, v)
}

// State reports how far the setup sequence got.
func (d *Dev) State() State {
	return d.state
}

// Reinit forgets that the chip was set up, so the next Render runs the whole
// setup sequence again. Use it after the bus was re-initialised or the board
// was power cycled.
func (d *Dev) Reinit() {
	d.isSetup = false
	d.state = Uninitialized
}
