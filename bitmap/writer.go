package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type fileHeader struct {
	Magic    [2]byte
	Size     uint32
	Reserved uint32
	Offset   uint32
}

type infoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	ImageSize     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ColorsUsed    uint32
	ColorsImport  uint32
}

// Black then white, each stored as blue, green, red, reserved
var palette = [paletteSize]byte{
	0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0xff,
}

type encoder struct {
	w io.Writer
}

func (e *encoder) writeHeaders(width, height int) error {
	imageSize := uint32(Size(width, height))

	fh := fileHeader{
		Magic:  [2]byte{'B', 'M'},
		Size:   HeaderSize + imageSize,
		Offset: HeaderSize,
	}
	if err := binary.Write(e.w, binary.LittleEndian, &fh); err != nil {
		return err
	}

	ih := infoHeader{
		Size:          infoHeaderSize,
		Width:         int32(width),
		Height:        int32(height),
		Planes:        1,
		BitCount:      1,
		ImageSize:     imageSize,
		XPelsPerMeter: resolution,
		YPelsPerMeter: resolution,
	}
	if err := binary.Write(e.w, binary.LittleEndian, &ih); err != nil {
		return err
	}

	_, err := e.w.Write(palette[:])
	return err
}

func (e *encoder) encode(buf []byte, width, height int) error {
	if err := e.writeHeaders(width, height); err != nil {
		return err
	}

	stride := RowBytes(width)
	row := make([]byte, stride)

	// Bottom row first
	for y := height - 1; y >= 0; y-- {
		for i, b := range buf[y*stride : (y+1)*stride] {
			row[i] = Reverse(b)
		}
		if _, err := e.w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes the packed pixel buffer buf, laid out as the watch stores
// it, to w as a width by height BMP file. Any bytes in buf beyond what the
// dimensions need are ignored.
func Encode(w io.Writer, buf []byte, width, height int) error {
	if err := checkDimensions(width, height); err != nil {
		return err
	}
	if need := Size(width, height); len(buf) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(buf), need)
	}

	e := encoder{w: w}

	return e.encode(buf, width, height)
}

// EncodeBytes is like Encode but returns the file contents.
func EncodeBytes(buf []byte, width, height int) ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, buf, width, height); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
