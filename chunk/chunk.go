/*
Package chunk implements reassembly of the watch screen sent as a series of
app messages.

The watch sends its frame buffer in fixed size pieces, each tagged as the
first, a middle or the last piece of the transfer. The Reassembler collects
them into a single pixel buffer and, once the last piece arrives, writes the
buffer and its status to durable storage so the drawing survives a restart.
*/
package chunk

import "fmt"

// Marker tags the position of a chunk within a transfer.
type Marker uint8

// Chunk markers as sent by the watch
const (
	First Marker = iota + 1
	Middle
	Last
)

// Valid reports whether m is one of the known markers.
func (m Marker) Valid() bool {
	return m >= First && m <= Last
}

func (m Marker) String() string {
	switch m {
	case First:
		return "first"
	case Middle:
		return "middle"
	case Last:
		return "last"
	default:
		return fmt.Sprintf("marker(%d)", uint8(m))
	}
}

// Status mirrors the last marker applied to the buffer.
type Status int

// Buffer statuses, persisted as their integer value
const (
	Empty Status = iota
	FirstSeen
	MidSeen
	Complete
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case FirstSeen:
		return "first seen"
	case MidSeen:
		return "mid seen"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result describes what OnChunk did with a chunk.
type Result int

const (
	// Applied means the chunk changed the buffer
	Applied Result = iota
	// Ignored means the chunk was malformed and the buffer is unchanged
	Ignored
	// Rejected means the chunk arrived out of order under strict ordering
	// and the buffer is unchanged
	Rejected
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Store is the durable key/value storage the buffer is persisted to. Get
// returns a nil slice and no error for a key that has never been set.
// SetMany writes every value or none of them.
type Store interface {
	Get(key string) ([]byte, error)
	SetMany(values map[string][]byte) error
}

// Storage slot names
const (
	BufferKey = "imagedata"
	StatusKey = "chunkstatus"
)
