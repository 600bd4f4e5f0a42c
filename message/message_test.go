package message

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seapea/draw/chunk"
)

func TestDecodeJSON(t *testing.T) {
	m, err := Decode("application/json; charset=utf-8", []byte(`{"chunk_status":2,"image_data":[0,128,255]}`))
	require.NoError(t, err)

	marker, payload, ok := m.Chunk()
	require.True(t, ok)
	assert.Equal(t, chunk.Middle, marker)
	assert.Equal(t, []byte{0, 128, 255}, payload)
}

func TestDecodeDefaultsToJSON(t *testing.T) {
	m, err := Decode("", []byte(`{"chunk_status":1,"image_data":[]}`))
	require.NoError(t, err)

	marker, payload, ok := m.Chunk()
	require.True(t, ok)
	assert.Equal(t, chunk.First, marker)
	assert.Empty(t, payload)
}

func TestDecodeMsgpack(t *testing.T) {
	b, err := Encode(New(chunk.Last, []byte{1, 2, 3}))
	require.NoError(t, err)

	for _, contentType := range []string{MsgpackType, XMsgpackType} {
		m, err := Decode(contentType, b)
		require.NoError(t, err)

		marker, payload, ok := m.Chunk()
		require.True(t, ok)
		assert.Equal(t, chunk.Last, marker)
		assert.Equal(t, []byte{1, 2, 3}, payload)
	}
}

func TestDecodeError(t *testing.T) {
	_, err := Decode("application/json", []byte(`{"chunk_status":`))
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "application/json", decodeErr.ContentType)
	assert.NotNil(t, errors.Unwrap(err))

	_, err = Decode(MsgpackType, []byte{0xc1})
	assert.True(t, errors.As(err, &decodeErr))
}

func TestChunkMissingFields(t *testing.T) {
	tables := []string{
		`{}`,
		`{"chunk_status":1}`,
		`{"image_data":[1,2]}`,
		`{"chunk_status":null,"image_data":[1]}`,
		`{"chunk_status":1,"image_data":null}`,
		`{"chunk_status":1,"image_data":[1,256]}`,
		`{"chunk_status":1,"image_data":[-1]}`,
		`{"chunk_status":-3,"image_data":[1]}`,
		`{"chunk_status":300,"image_data":[1]}`,
	}

	for _, table := range tables {
		m, err := Decode("", []byte(table))
		require.NoError(t, err, table)

		_, _, ok := m.Chunk()
		assert.False(t, ok, table)
	}
}

func TestChunkUnknownMarkerPassedThrough(t *testing.T) {
	m, err := Decode("", []byte(`{"chunk_status":7,"image_data":[1]}`))
	require.NoError(t, err)

	marker, _, ok := m.Chunk()
	require.True(t, ok)
	assert.False(t, marker.Valid())
}
