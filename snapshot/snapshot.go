/*
Package snapshot implements the serialized form of the pixel buffer kept in
durable storage between sessions.

The canonical encoding is a 12 byte header followed by the raw buffer: the
four byte magic "DRW1", the buffer length and a CRC-32/MPEG-2 of the buffer,
both as little-endian 32-bit values. Older hosts stored the buffer either as
a JSON array of integers or as the comma separated text an array turns into
when stored without serialization; both are still accepted when reading but
are never written.
*/
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/seapea/draw/crc32"
)

const (
	headerSize = 12

	// MaxSize is the largest buffer a snapshot will hold
	MaxSize = 1 << 20
)

var magic = [4]byte{'D', 'R', 'W', '1'}

var (
	// ErrChecksum is returned when the stored checksum does not match
	ErrChecksum = errors.New("snapshot: checksum mismatch")
	// ErrLength is returned when the stored length does not match the data
	ErrLength = errors.New("snapshot: length mismatch")
	// ErrTooLarge is returned for buffers larger than MaxSize
	ErrTooLarge = errors.New("snapshot: buffer too large")
	// ErrValue is returned when a legacy snapshot holds a value outside 0-255
	ErrValue = errors.New("snapshot: value out of range")
)

// Buffer is a pixel buffer snapshot. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Buffer []byte

// MarshalBinary encodes the buffer into its canonical form
func (b Buffer) MarshalBinary() ([]byte, error) {
	if len(b) > MaxSize {
		return nil, ErrTooLarge
	}

	out := new(bytes.Buffer)
	out.Grow(headerSize + len(b))

	out.Write(magic[:])
	if err := binary.Write(out, binary.LittleEndian, uint32(len(b))); err != nil {
		return nil, err
	}
	if err := binary.Write(out, binary.LittleEndian, crc32.Checksum(b)); err != nil {
		return nil, err
	}
	out.Write(b)

	return out.Bytes(), nil
}

// UnmarshalBinary decodes the buffer from any supported form. An empty input
// decodes to an empty buffer.
func (b *Buffer) UnmarshalBinary(data []byte) error {
	*b = nil

	switch {
	case len(data) == 0:
		return nil
	case bytes.HasPrefix(data, magic[:]):
		return b.unmarshalCanonical(data)
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil
	case trimmed[0] == '[':
		var values []int
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		return b.fromInts(values)
	default:
		return b.unmarshalText(string(trimmed))
	}
}

func (b *Buffer) unmarshalCanonical(data []byte) error {
	if len(data) < headerSize {
		return ErrLength
	}

	length := binary.LittleEndian.Uint32(data[4:8])
	sum := binary.LittleEndian.Uint32(data[8:12])

	if length > MaxSize {
		return ErrTooLarge
	}
	if int(length) != len(data)-headerSize {
		return fmt.Errorf("%w: header says %d bytes, have %d", ErrLength, length, len(data)-headerSize)
	}

	payload := data[headerSize:]
	if crc32.Checksum(payload) != sum {
		return ErrChecksum
	}

	*b = append(Buffer(nil), payload...)
	return nil
}

func (b *Buffer) unmarshalText(s string) error {
	fields := strings.Split(s, ",")
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		values = append(values, v)
	}
	return b.fromInts(values)
}

func (b *Buffer) fromInts(values []int) error {
	if len(values) > MaxSize {
		return ErrTooLarge
	}

	out := make(Buffer, len(values))
	for i, v := range values {
		if v < 0 || v > 0xff {
			return fmt.Errorf("%w: %d at index %d", ErrValue, v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
