// Package webdavtest provides an in-memory WebDAV server for tests. It
// mimics the status-code quirks davsync has to tolerate: 409 on PUT/MKCOL
// into a missing collection, 405 on MKCOL of an existing one, 404 on GET,
// HEAD and DELETE of absent objects.
package webdavtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Server is a fake WebDAV endpoint backed by in-memory maps.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	dirs     map[string]bool
	failPuts map[string]bool
	requests []string

	username string
	password string
}

// NewServer starts a fake WebDAV server. Callers own Close.
func NewServer() *Server {
	s := &Server{
		files:    make(map[string][]byte),
		dirs:     map[string]bool{"": true},
		failPuts: make(map[string]bool),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// FailPut makes every PUT on the given path answer 500.
func (s *Server) FailPut(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts[path] = true
}

// RequireAuth makes the server reject requests without matching basic auth.
func (s *Server) RequireAuth(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.password = password
}

// Requests returns the method+path log in arrival order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// RequestCount counts logged requests matching a "METHOD path" entry.
func (s *Server) RequestCount(entry string) int {
	n := 0
	for _, r := range s.Requests() {
		if r == entry {
			n++
		}
	}
	return n
}

// FileContent returns the stored bytes for a path, if present.
func (s *Server) FileContent(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[path]
	return b, ok
}

// PutFile seeds a remote object, creating parent collections implicitly.
func (s *Server) PutFile(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = content
	dir := parentOf(path)
	for dir != "" {
		s.dirs[dir] = true
		dir = parentOf(dir)
	}
}

// RemoveFile deletes a seeded or uploaded object.
func (s *Server) RemoveFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r.Method+" "+path)

	if s.username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.username || pass != s.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	switch r.Method {
	case http.MethodHead:
		if _, ok := s.files[path]; ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		if s.dirs[path] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)

	case http.MethodGet:
		if b, ok := s.files[path]; ok {
			w.WriteHeader(http.StatusOK)
			w.Write(b)
			return
		}
		w.WriteHeader(http.StatusNotFound)

	case http.MethodPut:
		if s.failPuts[path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !s.dirs[parentOf(path)] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.files[path] = body
		w.WriteHeader(http.StatusCreated)

	case http.MethodDelete:
		if _, ok := s.files[path]; ok {
			delete(s.files, path)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)

	case "MKCOL":
		if s.dirs[path] {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.files[path]; ok {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.dirs[parentOf(path)] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		s.dirs[path] = true
		w.WriteHeader(http.StatusCreated)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parentOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}
