package server

import (
	"bytes"
	"crypto/subtle"
	"io"
	"net/http"
	"strings"

	"github.com/nhdewitt/rabbit/internal/config"
	"github.com/nhdewitt/rabbit/internal/protocol"
	"github.com/nhdewitt/rabbit/internal/render"
)

const tokenModeBody = "The status page is disabled because a bearer token is configured. Use /metrics.\n"

type renderFunc func(w io.Writer, s *protocol.Snapshot, cfg config.Config, version string) error

// handleIndex serves the HTML status page. It is disabled when a token is
// configured.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.Config.Token != "" {
		respondText(w, http.StatusNotFound, tokenModeBody)
		return
	}
	s.respondRendered(w, r, render.HTMLContentType, render.HTML)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.logger.Debug("rejected metrics request", "request_id", requestID(r.Context()), "remote", r.RemoteAddr)
		respondText(w, http.StatusUnauthorized, "Unauthorized\n")
		return
	}
	s.respondRendered(w, r, render.ContentType, render.Metrics)
}

// authorized reports whether r carries exactly "Bearer <token>". Without a
// configured token every request is allowed.
func (s *Server) authorized(r *http.Request) bool {
	if s.Config.Token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.Config.Token)) == 1
}

// respondRendered renders into a buffer under the read lock and writes the
// response once the lock is released.
func (s *Server) respondRendered(w http.ResponseWriter, r *http.Request, contentType string, fn renderFunc) {
	var buf bytes.Buffer
	var err error
	s.Store.WithRead(func(snap *protocol.Snapshot) {
		err = fn(&buf, snap, s.Config, s.Version)
	})
	if err != nil {
		s.logger.Error("render failed", "request_id", requestID(r.Context()), "path", r.URL.Path, "err", err)
		respondText(w, http.StatusInternalServerError, "Internal Server Error\n")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
