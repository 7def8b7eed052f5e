package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// SetUI sets the filesystem the card UI is served from. Without one, non-API
// paths return 404.
func (s *Server) SetUI(fsys fs.FS) {
	s.ui = fsys
}

// handleUI serves static files from the UI filesystem. Any path not matching
// a real file returns index.html so client-side routes resolve.
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	if s.ui == nil {
		http.Error(w, "UI not embedded", http.StatusNotFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}
	if f, err := s.ui.Open(path); err != nil {
		path = "index.html"
	} else {
		f.Close()
	}

	http.ServeFileFS(w, r, s.ui, path)
}
