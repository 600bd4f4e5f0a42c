package crc32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, uint32(0x0376e6e7), Checksum([]byte("123456789")))
	assert.Equal(t, uint32(0xffffffff), Checksum(nil))
}

func TestDigest(t *testing.T) {
	h := New()
	h.Write([]byte("12345"))
	h.Write([]byte("6789"))

	assert.Equal(t, uint32(0x0376e6e7), h.Sum32())
	assert.Equal(t, []byte{0x03, 0x76, 0xe6, 0xe7}, h.Sum(nil))
	assert.Equal(t, Size, h.Size())

	h.Reset()
	assert.Equal(t, Checksum(nil), h.Sum32())
}

func TestUpdateIncremental(t *testing.T) {
	data := []byte{0x00, 0xff, 0x10, 0x20, 0x7f}
	crc := Update(initial, data[:2])
	crc = Update(crc, data[2:])

	assert.Equal(t, Checksum(data), crc)
}
