package draw

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/seapea/draw/chunk"
	"github.com/seapea/draw/message"
)

// Largest app message body accepted; the watch sends at most 512 bytes of
// image data per message
const maxMessageSize = 64 << 10

type server struct {
	bridge *Bridge
	loop   *Loop
	logger zerolog.Logger
}

// Handler returns an HTTP handler standing in for the host runtime. Every
// request is handled as an event on loop, which must be running.
//
//	POST /appmessage           app message from the watch (JSON or msgpack)
//	GET  /configuration        settings page
//	GET  /configuration/url    settings page as a data URL
//	POST /webviewclosed        settings page closed, response in "response"
//	GET  /image.bmp            stored drawing
func Handler(b *Bridge, loop *Loop) http.Handler {
	s := &server{
		bridge: b,
		loop:   loop,
		logger: b.logger,
	}

	router := httprouter.New()
	router.POST("/appmessage", s.appMessage)
	router.GET("/configuration", s.configuration)
	router.GET("/configuration/url", s.configurationURL)
	router.POST("/webviewclosed", s.webviewClosed)
	router.GET("/image.bmp", s.image)

	return router
}

func (s *server) error(w http.ResponseWriter, err error, code int) {
	s.logger.Error().Err(err).Int("code", code).Msg("request failed")
	http.Error(w, err.Error(), code)
}

func (s *server) appMessage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		s.error(w, err, http.StatusBadRequest)
		return
	}

	m, err := message.Decode(r.Header.Get("Content-Type"), body)
	if err != nil {
		s.error(w, err, http.StatusBadRequest)
		return
	}

	var (
		result chunk.Result
		status chunk.Status
	)
	if err := s.loop.Do(r.Context(), func() (err error) {
		result, err = s.bridge.HandleMessage(m)
		status = s.bridge.Status()
		return err
	}); err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Result string `json:"result"`
		Status int    `json:"status"`
	}{
		Result: result.String(),
		Status: int(status),
	})
}

func (s *server) configuration(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var doc []byte
	if err := s.loop.Do(r.Context(), func() (err error) {
		doc, err = s.bridge.ShowConfiguration()
		return err
	}); err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc)
}

func (s *server) configurationURL(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var u string
	if err := s.loop.Do(r.Context(), func() (err error) {
		u, err = s.bridge.ConfigurationURL()
		return err
	}); err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, u)
}

func (s *server) webviewClosed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		s.error(w, err, http.StatusBadRequest)
		return
	}
	response := r.Form.Get("response")

	var cleared bool
	if err := s.loop.Do(r.Context(), func() (err error) {
		cleared, err = s.bridge.WebviewClosed(response)
		return err
	}); err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Cleared bool `json:"cleared"`
	}{
		Cleared: cleared,
	})
}

func (s *server) image(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		bmp []byte
		ok  bool
	)
	if err := s.loop.Do(r.Context(), func() (err error) {
		bmp, ok, err = s.bridge.Bitmap()
		return err
	}); err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/bmp")
	w.Write(bmp)
}
