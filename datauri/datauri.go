// Package datauri builds the text forms used to hand binary data and
// generated documents to the host's web view.
package datauri

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// MIME type of an encoded BMP file
const BMPType = "image/bmp"

// The host only renders a data URL as HTML when it ends like a file name
const htmlSuffix = "<!--.html"

// EncodeBase64 returns the standard, padded Base64 encoding of b.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Image returns a data URI embedding b with the given MIME type.
func Image(mime string, b []byte) string {
	var sb strings.Builder
	sb.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(b)))
	sb.WriteString("data:")
	sb.WriteString(mime)
	sb.WriteString(";base64,")
	sb.WriteString(EncodeBase64(b))
	return sb.String()
}

// BMP returns a data URI embedding an encoded BMP file.
func BMP(b []byte) string {
	return Image(BMPType, b)
}

// HTML returns a data URL for an HTML document, percent encoded the same way
// encodeURIComponent does.
func HTML(doc []byte) string {
	return "data:text/html," + escapeComponent(string(doc)+htmlSuffix)
}

// url.QueryEscape turns spaces into '+' and escapes a few characters that
// encodeURIComponent leaves alone
var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}
