package datauri

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBase64(t *testing.T) {
	tables := []struct {
		in   []byte
		want string
	}{
		{nil, ""},
		{[]byte{}, ""},
		{[]byte("M"), "TQ=="},
		{[]byte("Ma"), "TWE="},
		{[]byte("Man"), "TWFu"},
		{[]byte("hello world"), "aGVsbG8gd29ybGQ="},
		{[]byte{0xfb, 0xff, 0xbf}, "+/+/"},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, EncodeBase64(table.in))
	}
}

func TestEncodeBase64Padding(t *testing.T) {
	for n, pad := range map[int]int{1: 2, 2: 1, 3: 0} {
		s := EncodeBase64(make([]byte, n))
		assert.Len(t, s, 4)
		assert.Equal(t, pad, strings.Count(s, "="), "%d bytes", n)
	}
}

func TestBMP(t *testing.T) {
	assert.Equal(t, "data:image/bmp;base64,Qk0=", BMP([]byte("BM")))
	assert.Equal(t, "data:image/png;base64,", Image("image/png", nil))
}

func TestHTML(t *testing.T) {
	doc := `<p class="x">Hi (there) & bye!</p>`
	s := HTML([]byte(doc))

	require.True(t, strings.HasPrefix(s, "data:text/html,"))
	body := strings.TrimPrefix(s, "data:text/html,")

	assert.NotContains(t, body, "+")
	assert.NotContains(t, body, " ")
	assert.Contains(t, body, "%20")
	assert.Contains(t, body, "(there)")
	assert.Contains(t, body, "!")

	decoded, err := url.PathUnescape(body)
	require.NoError(t, err)
	assert.Equal(t, doc+"<!--.html", decoded)
}
