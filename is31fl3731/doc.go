// Package is31fl3731 drives the IS31FL3731 charlieplex LED controller as
// wired on the 5x5 RGB matrix breakout.
//
// The driver keeps a 25 pixel frame buffer in memory. Pixel setters only touch
// that buffer; Render pushes it to the chip. Rendering is double buffered: the
// buffer is composed into whichever of the two frame banks is not on display,
// then the frame register is flipped so the new picture appears at once.
//
// The chip has one global bank-select latch. Every register access therefore
// selects its bank first, even when the previous access used the same bank.
//
// Dev has no internal locking. When a Dev is shared between goroutines the
// caller must hold a mutex across the whole set-pixels-then-Render sequence.
//
// # Datasheet
//
// https://www.lumissil.com/assets/pdf/core/IS31FL3731_DS.pdf
package is31fl3731
