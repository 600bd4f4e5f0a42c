package draw

import (
	"bytes"
	"html"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seapea/draw/bitmap"
	"github.com/seapea/draw/chunk"
	"github.com/seapea/draw/datauri"
	"github.com/seapea/draw/message"
)

func newBridge(t *testing.T, opts ...Option) (*Bridge, string) {
	file := filepath.Join(t.TempDir(), "draw.db")
	b, err := New(file, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, file
}

func frame() []byte {
	buf := make([]byte, bitmap.Size(bitmap.Width, bitmap.Height))
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

// Send buf the way the watch does, 512 bytes at a time
func sendFrame(t *testing.T, b *Bridge, buf []byte) {
	for pos := 0; pos < len(buf); pos += 512 {
		marker := chunk.Middle
		if pos == 0 {
			marker = chunk.First
		}
		end := pos + 512
		if end >= len(buf) {
			end = len(buf)
			marker = chunk.Last
		}

		result, err := b.HandleMessage(message.New(marker, buf[pos:end]))
		require.NoError(t, err)
		require.Equal(t, chunk.Applied, result)
	}
}

func TestBridgeEmpty(t *testing.T) {
	b, _ := newBridge(t)
	assert.Equal(t, chunk.Empty, b.Status())

	_, ok, err := b.Bitmap()
	require.NoError(t, err)
	assert.False(t, ok)

	doc, err := b.ShowConfiguration()
	require.NoError(t, err)
	assert.Contains(t, string(doc), "No drawing has been received yet.")
}

func TestBridgeReceiveAndRender(t *testing.T) {
	b, _ := newBridge(t)
	buf := frame()
	sendFrame(t, b, buf)

	assert.Equal(t, chunk.Complete, b.Status())

	bmp, ok, err := b.Bitmap()
	require.NoError(t, err)
	require.True(t, ok)

	want, err := bitmap.EncodeBytes(buf, bitmap.Width, bitmap.Height)
	require.NoError(t, err)
	assert.Equal(t, want, bmp)

	doc, err := b.ShowConfiguration()
	require.NoError(t, err)
	assert.Contains(t, html.UnescapeString(string(doc)), `src="`+datauri.BMP(bmp)+`"`)
}

func TestBridgeIgnoresMalformed(t *testing.T) {
	b, _ := newBridge(t)

	result, err := b.HandleMessage(message.AppMessage{ImageData: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, chunk.Ignored, result)

	status := 3
	result, err = b.HandleMessage(message.AppMessage{ChunkStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, chunk.Ignored, result)

	assert.Equal(t, chunk.Empty, b.Status())
}

func TestBridgeRestore(t *testing.T) {
	b, file := newBridge(t)
	buf := frame()
	sendFrame(t, b, buf)
	require.NoError(t, b.Close())

	restored, err := New(file)
	require.NoError(t, err)
	defer restored.Close()

	assert.Equal(t, chunk.Complete, restored.Status())

	bmp, ok, err := restored.Bitmap()
	require.NoError(t, err)
	require.True(t, ok)

	want, err := bitmap.EncodeBytes(buf, bitmap.Width, bitmap.Height)
	require.NoError(t, err)
	assert.Equal(t, want, bmp)
}

func TestBridgeShortImageFallsBack(t *testing.T) {
	b, _ := newBridge(t)
	sendFrame(t, b, []byte{1, 2, 3, 4})

	_, _, err := b.Bitmap()
	assert.ErrorIs(t, err, bitmap.ErrShortBuffer)

	doc, err := b.ShowConfiguration()
	require.NoError(t, err)
	assert.Contains(t, string(doc), "No drawing has been received yet.")
}

func TestBridgeWebviewClosed(t *testing.T) {
	b, file := newBridge(t)
	sendFrame(t, b, frame())

	for _, response := range []string{"", "close", "CLEAR"} {
		cleared, err := b.WebviewClosed(response)
		require.NoError(t, err)
		assert.False(t, cleared, response)
		assert.Equal(t, chunk.Complete, b.Status())
	}

	cleared, err := b.WebviewClosed("clear")
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, chunk.Empty, b.Status())

	_, ok, err := b.Bitmap()
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := b.store.Get(chunk.StatusKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("0"), v)

	require.NoError(t, b.Close())

	restored, err := New(file)
	require.NoError(t, err)
	defer restored.Close()
	assert.Equal(t, chunk.Empty, restored.Status())
}

func TestBridgeConfigurationURL(t *testing.T) {
	b, _ := newBridge(t)

	u, err := b.ConfigurationURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "data:text/html,"))
	assert.True(t, strings.HasSuffix(u, "%3C!--.html"))
}

func TestBridgeImport(t *testing.T) {
	b, _ := newBridge(t)

	m := image.NewGray(image.Rect(0, 0, bitmap.Width, bitmap.Height))
	for y := 0; y < bitmap.Height; y++ {
		for x := 0; x < bitmap.Width; x++ {
			if y < bitmap.Height/2 {
				m.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}

	require.NoError(t, b.Import(m, 0))
	assert.Equal(t, chunk.Complete, b.Status())

	got, ok, err := b.Image()
	require.NoError(t, err)
	require.True(t, ok)

	p := got.(*image.Paletted)
	assert.Equal(t, uint8(1), p.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(0), p.ColorIndexAt(0, bitmap.Height-1))

	bmp, ok, err := b.Bitmap()
	require.NoError(t, err)
	require.True(t, ok)

	decoded, err := bitmap.Decode(bytes.NewReader(bmp))
	require.NoError(t, err)
	r, _, _, _ := decoded.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestBridgeImportSingleChunkStrict(t *testing.T) {
	b, _ := newBridge(t, WithStrictOrdering(true))

	m := image.NewPaletted(image.Rect(0, 0, bitmap.Width, bitmap.Height), bitmap.Model)
	require.NoError(t, b.Import(m, 1<<16))
	assert.Equal(t, chunk.Complete, b.Status())
}

func TestBridgeStrictRejects(t *testing.T) {
	b, _ := newBridge(t, WithStrictOrdering(true))

	result, err := b.HandleMessage(message.New(chunk.Last, []byte{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, chunk.Rejected, result)
	assert.Equal(t, chunk.Empty, b.Status())
}
