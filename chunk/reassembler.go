package chunk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seapea/draw/snapshot"
)

// Reassembler accumulates chunks into a pixel buffer. It is not safe for
// concurrent use; callers are expected to handle one event at a time.
type Reassembler struct {
	store  Store
	logger zerolog.Logger
	strict bool

	buf    []byte
	status Status
}

// Option configures a Reassembler.
type Option func(*Reassembler)

// WithLogger sets the logger, which defaults to discarding everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reassembler) {
		r.logger = logger
	}
}

// WithStrictOrdering rejects middle and last chunks that do not follow a
// first chunk. By default they are applied as they arrive.
func WithStrictOrdering(strict bool) Option {
	return func(r *Reassembler) {
		r.strict = strict
	}
}

// New returns an empty Reassembler persisting to store. Call Restore to load
// any previously saved buffer.
func New(store Store, opts ...Option) *Reassembler {
	r := &Reassembler{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Buffer returns a copy of the current pixel buffer.
func (r *Reassembler) Buffer() []byte {
	return append([]byte(nil), r.buf...)
}

// Status returns the current buffer status.
func (r *Reassembler) Status() Status {
	return r.status
}

// Ready reports whether the buffer holds a complete transfer worth rendering.
func (r *Reassembler) Ready() bool {
	return r.status == Complete && len(r.buf) > 1
}

func (r *Reassembler) inProgress() bool {
	return r.status == FirstSeen || r.status == MidSeen
}

// OnChunk applies a single chunk. A nil payload or unknown marker is
// malformed and ignored. The buffer is persisted when the last chunk lands;
// an error is only returned if that fails, in which case the in-memory
// buffer still holds the completed transfer.
func (r *Reassembler) OnChunk(m Marker, payload []byte) (Result, error) {
	if payload == nil || !m.Valid() {
		r.logger.Debug().Stringer("marker", m).Bool("payload", payload != nil).Msg("ignoring malformed chunk")
		return Ignored, nil
	}

	if m != First && !r.inProgress() {
		if r.strict {
			r.logger.Warn().Stringer("marker", m).Stringer("status", r.status).Msg("rejecting out of order chunk")
			return Rejected, nil
		}
		r.logger.Warn().Stringer("marker", m).Stringer("status", r.status).Msg("chunk out of order")
	}

	switch m {
	case First:
		r.buf = append(r.buf[:0:0], payload...)
		r.status = FirstSeen
	case Middle:
		r.buf = append(r.buf, payload...)
		r.status = MidSeen
	case Last:
		r.buf = append(r.buf, payload...)
		r.status = Complete
	}

	r.logger.Debug().Stringer("marker", m).Int("length", len(payload)).Int("total", len(r.buf)).Msg("chunk applied")

	if m == Last {
		r.logger.Info().Int("length", len(r.buf)).Msg("image received")
		if err := r.Persist(); err != nil {
			return Applied, err
		}
	}

	return Applied, nil
}

// Restore loads the buffer and status from the store. Slots that have never
// been written leave an empty buffer with status Empty.
func (r *Reassembler) Restore() error {
	b, err := r.store.Get(BufferKey)
	if err != nil {
		return err
	}

	var buf snapshot.Buffer
	if err := buf.UnmarshalBinary(b); err != nil {
		return err
	}

	s, err := r.store.Get(StatusKey)
	if err != nil {
		return err
	}

	status := Empty
	if len(s) > 0 {
		v, err := strconv.Atoi(strings.TrimSpace(string(s)))
		if err != nil {
			return fmt.Errorf("chunk: bad status %q: %w", s, err)
		}
		status = Status(v)
		if status < Empty || status > Complete {
			return fmt.Errorf("chunk: bad status %d", v)
		}
	}

	r.buf = []byte(buf)
	r.status = status

	r.logger.Debug().Int("length", len(r.buf)).Stringer("status", r.status).Msg("restored")

	return nil
}

// Persist writes the buffer and status to the store in one update, replacing
// whatever was there before. On failure both slots keep their old values.
func (r *Reassembler) Persist() error {
	b, err := snapshot.Buffer(r.buf).MarshalBinary()
	if err != nil {
		return err
	}

	return r.store.SetMany(map[string][]byte{
		BufferKey: b,
		StatusKey: []byte(strconv.Itoa(int(r.status))),
	})
}

// Reset clears the buffer and status, both in memory and in the store.
func (r *Reassembler) Reset() error {
	r.buf = nil
	r.status = Empty

	r.logger.Info().Msg("image cleared")

	return r.Persist()
}
