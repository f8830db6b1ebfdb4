package is31fl3731

import (
	"errors"
	"fmt"
)

var (
	// ErrRange is returned when a color channel, brightness or frame number is
	// outside its legal range.
	ErrRange = errors.New("is31fl3731: value out of range")
	// ErrCoordinateRange is returned when a pixel coordinate is off the matrix.
	ErrCoordinateRange = errors.New("is31fl3731: coordinate out of range")
	// ErrEmptyInput is returned by SetMultiple when no pixel is given.
	ErrEmptyInput = errors.New("is31fl3731: empty pixel sequence")
	// ErrConfiguration is returned for a malformed gamma table.
	ErrConfiguration = errors.New("is31fl3731: invalid configuration")
)

// wiringHint is attached to transport failures seen while resetting the chip,
// the first transaction a freshly constructed Dev performs.
const wiringHint = "make sure the matrix is attached and double-check the soldering"

// DeviceIOError wraps a failed bus transaction.
type DeviceIOError struct {
	// Op names the register access that failed.
	Op string
	// Hint is set when the failure most likely means the device is absent or
	// mis-wired.
	Hint string
	Err  error
}

func (e *DeviceIOError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("is31fl3731: %s: %v (%s)", e.Op, e.Err, e.Hint)
	}
	return fmt.Sprintf("is31fl3731: %s: %v", e.Op, e.Err)
}

func (e *DeviceIOError) Unwrap() error { return e.Err }
