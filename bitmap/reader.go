package bitmap

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
)

// Largest accepted side and pixel count when decoding
const (
	maxSide   = 1 << 14
	maxPixels = 1 << 26
)

var (
	errNotBMP      = errors.New("bitmap: not a BMP file")
	errUnsupported = errors.New("bitmap: unsupported BMP file")
	errNotEnough   = errors.New("bitmap: not enough image data")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	fh fileHeader
	ih infoHeader

	width, height int
	topDown       bool

	image   *image.Paletted
	palette color.Palette
}

func (d *decoder) readHeaders() error {
	if err := binary.Read(d.r, binary.LittleEndian, &d.fh); err != nil {
		return err
	}
	if d.fh.Magic != [2]byte{'B', 'M'} {
		return errNotBMP
	}

	if err := binary.Read(d.r, binary.LittleEndian, &d.ih); err != nil {
		return err
	}
	if d.ih.Size != infoHeaderSize || d.ih.Planes != 1 || d.ih.BitCount != 1 || d.ih.Compression != 0 {
		return errUnsupported
	}

	if d.ih.Height == math.MinInt32 {
		return errUnsupported
	}
	d.width = int(d.ih.Width)
	d.height = int(d.ih.Height)
	if d.height < 0 {
		d.height = -d.height
		d.topDown = true
	}
	if d.width <= 0 || d.height == 0 {
		return errUnsupported
	}
	if d.width > maxSide || d.height > maxSide || int64(d.width)*int64(d.height) > maxPixels {
		return errUnsupported
	}

	colors := int(d.ih.ColorsUsed)
	if colors == 0 {
		colors = 2
	}
	if colors > 2 {
		return errUnsupported
	}
	if d.fh.Offset < uint32(fileHeaderSize+infoHeaderSize+4*colors) {
		return errUnsupported
	}

	return nil
}

func (d *decoder) readPalette() error {
	colors := 2
	if d.ih.ColorsUsed > 0 {
		colors = int(d.ih.ColorsUsed)
	}

	d.palette = make(color.Palette, 0, 2)
	for i := 0; i < colors; i++ {
		var tmp [4]byte
		if err := readFull(d.r, tmp[:]); err != nil {
			return err
		}
		// Stored as blue, green, red, reserved
		d.palette = append(d.palette, color.RGBA{tmp[2], tmp[1], tmp[0], 0xff})
	}
	// Pad a single entry table so every bit value has a color
	for len(d.palette) < 2 {
		d.palette = append(d.palette, color.RGBA{0xff, 0xff, 0xff, 0xff})
	}

	// Skip any gap between the color table and the pixel data
	skip := int64(d.fh.Offset) - int64(fileHeaderSize+infoHeaderSize+4*colors)
	if _, err := io.CopyN(io.Discard, d.r, skip); err != nil {
		return io.ErrUnexpectedEOF
	}

	return nil
}

func (d *decoder) readPixels() error {
	d.image = image.NewPaletted(image.Rect(0, 0, d.width, d.height), d.palette)

	row := make([]byte, RowBytes(d.width))
	for i := 0; i < d.height; i++ {
		if err := readFull(d.r, row); err != nil {
			return err
		}

		y := d.height - 1 - i
		if d.topDown {
			y = i
		}

		for x := 0; x < d.width; x++ {
			d.image.SetColorIndex(x, y, row[x>>3]>>(7-uint(x&7))&1)
		}
	}

	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = r

	if err := d.readHeaders(); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errNotEnough
		}
		return err
	}

	if err := d.readPalette(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	if configOnly {
		return nil
	}

	if err := d.readPixels(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	return nil
}

// Decode reads a 1-bit BMP file from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeConfig returns the color model and dimensions of a 1-bit BMP file
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: d.palette,
		Width:      d.width,
		Height:     d.height,
	}, nil
}
