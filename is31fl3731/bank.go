package is31fl3731

import "fmt"

// Registers in the config bank.
const (
	regMode      byte = 0x00
	regFrame     byte = 0x01
	regAudioSync byte = 0x06
	regShutdown  byte = 0x0a
)

const (
	// ConfigBank selects the function (config) register page.
	ConfigBank byte = 0x0b
	// regBankSelect is the command register latching the active page. It is
	// reachable whatever page is selected.
	regBankSelect byte = 0xfd
)

// Display modes written to regMode.
const (
	PictureMode   byte = 0x00
	AutoplayMode  byte = 0x08
	AudioplayMode byte = 0x18
)

// Offsets inside a frame bank.
const (
	enableOffset byte = 0x00
	colorOffset  byte = 0x24
)

const (
	// MaxFrame is the highest frame bank number.
	MaxFrame = 8
	// planeSize is the number of PWM bytes in one frame bank.
	planeSize = 144
	// chunkSize bounds the payload of a single I2C write.
	chunkSize = 32
)

// selectBank latches bank as the active register page.
func (d *Dev) selectBank(bank byte) error {
	if err := d.c.Tx([]byte{regBankSelect, bank}, nil); err != nil {
		return &DeviceIOError{Op: fmt.Sprintf("select bank 0x%02x", bank), Err: err}
	}
	return nil
}

// Bank reads the bank-select latch back from the chip.
func (d *Dev) Bank() (byte, error) {
	var b [1]byte
	if err := d.c.Tx([]byte{regBankSelect}, b[:]); err != nil {
		return 0, &DeviceIOError{Op: "read bank", Err: err}
	}
	return b[0], nil
}

// readRegister selects bank and then reads one register from it.
func (d *Dev) readRegister(bank, reg byte) (byte, error) {
	if err := d.selectBank(bank); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.c.Tx([]byte{reg}, b[:]); err != nil {
		return 0, &DeviceIOError{Op: fmt.Sprintf("read register 0x%02x", reg), Err: err}
	}
	return b[0], nil
}

// writeRegister selects bank and then writes one register in it.
func (d *Dev) writeRegister(bank, reg, v byte) error {
	if err := d.selectBank(bank); err != nil {
		return err
	}
	return d.write(reg, []byte{v})
}

// write sends data starting at reg in the currently selected bank.
func (d *Dev) write(reg byte, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	if err := d.c.Tx(w, nil); err != nil {
		return &DeviceIOError{Op: fmt.Sprintf("write register 0x%02x", reg), Err: err}
	}
	return nil
}
