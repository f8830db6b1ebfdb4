package is31fl3731

const (
	// Width and Height of the matrix in pixels.
	Width  = 5
	Height = 5
	// NumPixels is the number of logical pixels in the frame buffer.
	NumPixels = Width * Height
)

// pixelAddr maps a logical pixel index to the PWM register offsets of its
// red, green and blue LEDs inside a frame bank's color plane. The last three
// entries belong to positions that are not populated on the 5x5 board.
var pixelAddr = [28][3]byte{
	{118, 69, 85},
	{117, 68, 101},
	{116, 84, 100},
	{115, 83, 99},
	{114, 82, 98},
	{113, 81, 97},
	{112, 80, 96},
	{134, 21, 37},
	{133, 20, 36},
	{132, 19, 35},
	{131, 18, 34},
	{130, 17, 50},
	{129, 33, 49},
	{128, 32, 48},

	{127, 47, 63},
	{121, 41, 57},
	{122, 25, 58},
	{123, 26, 42},
	{124, 27, 43},
	{125, 28, 44},
	{126, 29, 45},
	{15, 95, 111},
	{8, 89, 105},
	{9, 90, 106},
	{10, 91, 107},
	{11, 92, 108},
	{12, 76, 109},
	{13, 77, 93},
}

// enableMask marks the 75 LED positions wired on the board, one bit per
// position, LSB first. It encodes the same layout as the first NumPixels
// entries of pixelAddr.
var enableMask = [18]byte{
	0b00000000, 0b10000111,
	0b00111110, 0b00111110,
	0b00111111, 0b10111110,
	0b00000111, 0b10000110,
	0b00110000, 0b00000000,
	0b00111111, 0b10001110,
	0b00111111, 0b10001110,
	0b01111111, 0b11111110,
	0b01111111, 0b00000000,
}

// physicalAddresses returns the red, green and blue register offsets of the
// pixel at logical index i.
func physicalAddresses(i int) (r, g, b byte) {
	a := pixelAddr[i]
	return a[0], a[1], a[2]
}

// logicalIndex converts a matrix coordinate to a frame buffer index. Columns
// are wired serpentine, so odd columns run bottom to top.
func logicalIndex(x, y int) (int, error) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0, ErrCoordinateRange
	}
	if x%2 == 1 {
		y = Height - 1 - y
	}
	return x*Height + y, nil
}
