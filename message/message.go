// Package message decodes the app messages the host delivers from the watch.
package message

import (
	"encoding/json"
	"fmt"
	"mime"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/seapea/draw/chunk"
)

// AppMessage is a single message from the watch. Either field may be absent.
type AppMessage struct {
	ChunkStatus *int  `json:"chunk_status" msgpack:"chunk_status"`
	ImageData   []int `json:"image_data" msgpack:"image_data"`
}

// DecodeError is returned when a message body cannot be decoded.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("message: decoding %s: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Content types accepted by Decode besides JSON
const (
	MsgpackType  = "application/msgpack"
	XMsgpackType = "application/x-msgpack"
)

// Decode decodes an app message body. Bodies are JSON unless contentType
// names msgpack.
func Decode(contentType string, body []byte) (AppMessage, error) {
	var m AppMessage

	mediaType := "application/json"
	if contentType != "" {
		if t, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = t
		}
	}

	var err error
	switch mediaType {
	case MsgpackType, XMsgpackType:
		err = msgpack.Unmarshal(body, &m)
	default:
		err = json.Unmarshal(body, &m)
	}
	if err != nil {
		return AppMessage{}, &DecodeError{ContentType: mediaType, Err: err}
	}

	return m, nil
}

// Encode encodes m as msgpack, the form used when replaying a transfer.
func Encode(m AppMessage) ([]byte, error) {
	return msgpack.Marshal(&m)
}

// New returns a message carrying a chunk.
func New(marker chunk.Marker, payload []byte) AppMessage {
	status := int(marker)
	data := make([]int, len(payload))
	for i, b := range payload {
		data[i] = int(b)
	}
	return AppMessage{
		ChunkStatus: &status,
		ImageData:   data,
	}
}

// Chunk returns the chunk carried by m. It returns false if either field is
// absent or an image value does not fit in a byte, in which case the message
// should be ignored.
func (m AppMessage) Chunk() (chunk.Marker, []byte, bool) {
	if m.ChunkStatus == nil || m.ImageData == nil {
		return 0, nil, false
	}

	status := *m.ChunkStatus
	if status < 0 || status > 0xff {
		return 0, nil, false
	}

	payload := make([]byte, len(m.ImageData))
	for i, v := range m.ImageData {
		if v < 0 || v > 0xff {
			return 0, nil, false
		}
		payload[i] = byte(v)
	}

	return chunk.Marker(status), payload, true
}
