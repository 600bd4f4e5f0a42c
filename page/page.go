/*
Package page generates the configuration document shown by the host when the
user opens the app settings on the phone.

The document either shows the last drawing received from the watch, with a
button to clear it, or instructions on how to send one.
*/
package page

import (
	"html/template"
	"io"
)

const (
	// CloseURL closes the web view without a response
	CloseURL = "pebblejs://close#"
	// ClearURL closes the web view asking for the stored drawing to be cleared
	ClearURL = CloseURL + ClearResponse

	// ClearResponse is the web view response that resets the stored drawing
	ClearResponse = "clear"
)

// Data is the content of a configuration document.
type Data struct {
	// ImageURI is a data URI of the drawing, empty if there is none
	ImageURI string
}

type view struct {
	Image    template.URL
	HasImage bool
	Close    template.URL
	Clear    template.URL
}

var tmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Draw</title>
<style>
body { font-family: sans-serif; text-align: center; }
img { width: 288px; height: 336px; image-rendering: pixelated; border: 1px solid #000; }
input { font-size: 1.2em; margin: 0.5em; }
</style>
</head>
<body>
<h1>Draw</h1>
{{- if .HasImage}}
<p><img id="drawing" src="{{.Image}}" alt="Drawing"></p>
<p>Press and hold the image to save or share it.</p>
<p>
<input type="button" value="Clear" onClick="location.href='{{.Clear}}'">
<input type="button" value="Close" onClick="location.href='{{.Close}}'">
</p>
{{- else}}
<p>No drawing has been received yet.</p>
<p>On the watch, press Down to open Settings and choose Send to Phone, then open these settings again.</p>
<p><input type="button" value="Close" onClick="location.href='{{.Close}}'"></p>
{{- end}}
</body>
</html>
`))

// Render writes the configuration document described by d to w.
func Render(w io.Writer, d Data) error {
	return tmpl.Execute(w, view{
		Image:    template.URL(d.ImageURI),
		HasImage: d.ImageURI != "",
		Close:    template.URL(CloseURL),
		Clear:    template.URL(ClearURL),
	})
}
