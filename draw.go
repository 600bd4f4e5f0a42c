/*
Package draw is the phone side of the Draw watch app.

The watch sends the drawing on its screen as a series of app messages. The
bridge reassembles them into the watch frame buffer, keeps it in durable
storage, and when the user opens the app settings renders it as a BMP image
embedded in the settings page, from where it can be saved or cleared.
*/
package draw

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/seapea/draw/bitmap"
	"github.com/seapea/draw/chunk"
	"github.com/seapea/draw/datauri"
	"github.com/seapea/draw/message"
	"github.com/seapea/draw/page"
)

// DefaultChunkSize is the payload size the watch sends in each message
const DefaultChunkSize = 512

// Bridge handles the events delivered by the host. Its methods must not be
// called concurrently; use a Loop to serialize them.
type Bridge struct {
	store  *Store
	chunks *chunk.Reassembler
	logger zerolog.Logger
	strict bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger, which defaults to discarding everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithStrictOrdering rejects chunks that do not follow a first chunk.
func WithStrictOrdering(strict bool) Option {
	return func(b *Bridge) {
		b.strict = strict
	}
}

// New opens the store in file and restores the last received drawing.
func New(file string, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	store, err := NewStore(file)
	if err != nil {
		return nil, err
	}
	b.store = store

	b.chunks = chunk.New(store, chunk.WithLogger(b.logger), chunk.WithStrictOrdering(b.strict))
	if err := b.chunks.Restore(); err != nil {
		store.Close()
		return nil, err
	}

	b.logger.Debug().Str("db", file).Stringer("status", b.chunks.Status()).Msg("bridge ready")

	return b, nil
}

// Close closes the store.
func (b *Bridge) Close() error {
	return b.store.Close()
}

// Status returns the status of the stored drawing.
func (b *Bridge) Status() chunk.Status {
	return b.chunks.Status()
}

// HandleMessage applies an app message from the watch. Messages without
// both a chunk status and image data are ignored.
func (b *Bridge) HandleMessage(m message.AppMessage) (chunk.Result, error) {
	marker, payload, ok := m.Chunk()
	if !ok {
		b.logger.Debug().Msg("ignoring message without image data")
		return chunk.Ignored, nil
	}
	return b.chunks.OnChunk(marker, payload)
}

// Bitmap returns the stored drawing as a BMP file. It returns false if no
// complete drawing has been received.
func (b *Bridge) Bitmap() ([]byte, bool, error) {
	if !b.chunks.Ready() {
		return nil, false, nil
	}

	bmp, err := bitmap.EncodeBytes(b.chunks.Buffer(), bitmap.Width, bitmap.Height)
	if err != nil {
		return nil, false, err
	}
	return bmp, true, nil
}

// Image returns the stored drawing as an image. It returns false if no
// complete drawing has been received.
func (b *Bridge) Image() (image.Image, bool, error) {
	if !b.chunks.Ready() {
		return nil, false, nil
	}

	m, err := bitmap.Unpack(b.chunks.Buffer(), bitmap.Width, bitmap.Height)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// ShowConfiguration renders the settings page. A stored drawing that cannot
// be encoded is logged and the page falls back to the instructions shown
// when there is no drawing.
func (b *Bridge) ShowConfiguration() ([]byte, error) {
	var d page.Data

	bmp, ok, err := b.Bitmap()
	switch {
	case errors.Is(err, bitmap.ErrShortBuffer):
		b.logger.Warn().Err(err).Msg("stored image does not fit the screen")
	case err != nil:
		return nil, err
	case ok:
		d.ImageURI = datauri.BMP(bmp)
	}

	buf := new(bytes.Buffer)
	if err := page.Render(buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConfigurationURL returns the settings page as a URL the host can open.
func (b *Bridge) ConfigurationURL() (string, error) {
	doc, err := b.ShowConfiguration()
	if err != nil {
		return "", err
	}
	return datauri.HTML(doc), nil
}

// WebviewClosed handles the settings page being closed with the given
// response. A response of "clear" resets the stored drawing; anything else
// is ignored. It reports whether the drawing was cleared.
func (b *Bridge) WebviewClosed(response string) (bool, error) {
	if response == "" {
		b.logger.Debug().Msg("settings cancelled")
		return false, nil
	}
	if response != page.ClearResponse {
		b.logger.Debug().Str("response", response).Msg("ignoring settings response")
		return false, nil
	}
	if err := b.Clear(); err != nil {
		return false, err
	}
	return true, nil
}

// Clear discards the stored drawing.
func (b *Bridge) Clear() error {
	return b.chunks.Reset()
}

func (b *Bridge) send(marker chunk.Marker, payload []byte) error {
	result, err := b.HandleMessage(message.New(marker, payload))
	if err != nil {
		return err
	}
	if result != chunk.Applied {
		return fmt.Errorf("%s chunk %s", marker, result)
	}
	return nil
}

// Import sends m through the bridge the same way the watch would, split into
// messages carrying at most chunkSize bytes each.
func (b *Bridge) Import(m image.Image, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	buf, err := bitmap.Pack(m)
	if err != nil {
		return err
	}

	for pos := 0; pos < len(buf); pos += chunkSize {
		end := pos + chunkSize
		if end > len(buf) {
			end = len(buf)
		}

		marker := chunk.Middle
		switch {
		case pos == 0:
			marker = chunk.First
		case end == len(buf):
			marker = chunk.Last
		}

		if err := b.send(marker, buf[pos:end]); err != nil {
			return err
		}
	}

	// Everything fitted in the first message
	if len(buf) <= chunkSize {
		return b.send(chunk.Last, []byte{})
	}

	return nil
}
