package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// Model is the palette of the watch screen, indexed by bit value.
var Model = color.Palette{color.Black, color.White}

var errWrongSize = errors.New("bitmap: image is wrong size")

// Work out which palette entries should become white pixels; anything
// brighter than the midpoint between the darkest and lightest color
func whiteIndices(p color.Palette) []bool {
	lum := make([]uint16, len(p))
	lo, hi := uint16(0xffff), uint16(0)
	for i, c := range p {
		lum[i] = color.Gray16Model.Convert(c).(color.Gray16).Y
		if lum[i] < lo {
			lo = lum[i]
		}
		if lum[i] > hi {
			hi = lum[i]
		}
	}

	threshold := uint32(0x8000)
	if lo != hi {
		threshold = (uint32(lo) + uint32(hi) + 1) / 2
	}

	white := make([]bool, len(p))
	for i := range p {
		white[i] = uint32(lum[i]) >= threshold
	}
	return white
}

// Pack converts m into a pixel buffer laid out the way the watch stores its
// screen. The image must be exactly Width by Height pixels; any image with
// more than two colors is reduced to two first.
func Pack(m image.Image) ([]byte, error) {
	b := m.Bounds()
	if b.Dx() != Width || b.Dy() != Height {
		return nil, errWrongSize
	}

	pm, _ := m.(*image.Paletted)
	if pm == nil || len(pm.Palette) > len(Model) {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, len(Model)), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	white := whiteIndices(pm.Palette)
	stride := RowBytes(Width)
	buf := make([]byte, Size(Width, Height))

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			i := pm.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
			if int(i) < len(white) && white[i] {
				buf[y*stride+x>>3] |= 1 << uint(x&7)
			}
		}
	}

	return buf, nil
}

// Unpack converts a pixel buffer laid out the way the watch stores its
// screen into an image.
func Unpack(buf []byte, width, height int) (*image.Paletted, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	if need := Size(width, height); len(buf) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(buf), need)
	}

	m := image.NewPaletted(image.Rect(0, 0, width, height), Model)
	stride := RowBytes(width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.SetColorIndex(x, y, buf[y*stride+x>>3]>>uint(x&7)&1)
		}
	}

	return m, nil
}
