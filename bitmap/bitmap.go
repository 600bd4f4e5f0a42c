/*
Package bitmap implements a 1-bit monochrome BMP encoder and decoder for the
Draw watch frame buffer.

The watch stores its 144 by 168 pixel screen as packed 1-bit pixels, 20 bytes
per row (18 bytes of pixels padded to a multiple of four), top row first and
with the leftmost pixel in the least significant bit. A set bit is white.

The BMP file written is 62 bytes of header (14 byte file header, 40 byte info
header and a two entry black/white color table) followed by the rows in
bottom-up order with the bits of each byte reversed, as the format expects
the leftmost pixel in the most significant bit.
*/
package bitmap

import (
	"errors"
	"math/bits"
)

const (
	// Width of the watch screen in pixels
	Width = 144
	// Height of the watch screen in pixels
	Height = 168

	fileHeaderSize = 14
	infoHeaderSize = 40
	paletteSize    = 2 * 4

	// HeaderSize is the offset of the pixel data in an encoded file
	HeaderSize = fileHeaderSize + infoHeaderSize + paletteSize

	// Pixels per metre, roughly 72 DPI
	resolution = 2835
)

var (
	// ErrShortBuffer is returned when the pixel buffer is smaller than the
	// requested dimensions need
	ErrShortBuffer = errors.New("bitmap: pixel buffer too short")
	// ErrDimensions is returned for a zero, negative or non byte aligned size
	ErrDimensions = errors.New("bitmap: invalid dimensions")
)

// RowBytes returns the length of a row of width pixels padded to a multiple
// of four bytes.
func RowBytes(width int) int {
	return (width + 31) / 32 * 4
}

// Size returns the number of bytes in a pixel buffer of the given dimensions.
func Size(width, height int) int {
	return RowBytes(width) * height
}

// Reverse returns b with the order of its bits reversed.
func Reverse(b byte) byte {
	return bits.Reverse8(b)
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width%8 != 0 {
		return ErrDimensions
	}
	return nil
}
