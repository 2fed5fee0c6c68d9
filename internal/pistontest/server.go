// Package pistontest provides an in-process fake Piston service for tests.
package pistontest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/caffeineduck/piston/catalog"
)

// ExecuteFunc answers an execute call. It receives the raw request body and
// returns the status and body to send back.
type ExecuteFunc func(body []byte) (status int, reply string)

// Server is a fake service listening on a local address. Its base URL is
// URL + "/api", matching the public service layout.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	langs     catalog.Catalog
	execute   ExecuteFunc
	requests  [][]byte
	userAgent string

	runtimesStatus int
	runtimesCalls  atomic.Int64
	executeCalls   atomic.Int64
}

// NewServer starts a fake service listing langs. Execute calls echo a
// successful, empty run of the requested language until SetExecute is called.
func NewServer(langs catalog.Catalog) *Server {
	s := &Server{
		langs:          langs,
		execute:        echoRun,
		runtimesStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/piston/runtimes", s.handleRuntimes)
	mux.HandleFunc("POST /api/v2/piston/execute", s.handleExecute)
	mux.HandleFunc("GET /api/v2/piston/packages", s.handlePackages)
	mux.HandleFunc("POST /api/v2/piston/packages", s.handlePackageChange)
	mux.HandleFunc("DELETE /api/v2/piston/packages", s.handlePackageChange)

	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL returns the value to pass to client.WithBaseURL.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// SetLanguages replaces the listed catalog.
func (s *Server) SetLanguages(langs catalog.Catalog) {
	s.mu.Lock()
	s.langs = langs
	s.mu.Unlock()
}

// SetRuntimesStatus makes the listing endpoint answer with status.
func (s *Server) SetRuntimesStatus(status int) {
	s.mu.Lock()
	s.runtimesStatus = status
	s.mu.Unlock()
}

// SetExecute replaces the execute handler.
func (s *Server) SetExecute(fn ExecuteFunc) {
	s.mu.Lock()
	s.execute = fn
	s.mu.Unlock()
}

// Reply returns an ExecuteFunc that always answers with status and body.
func Reply(status int, body string) ExecuteFunc {
	return func([]byte) (int, string) {
		return status, body
	}
}

// RuntimesCalls reports how many times the catalog was listed.
func (s *Server) RuntimesCalls() int {
	return int(s.runtimesCalls.Load())
}

// ExecuteCalls reports how many execute calls were received.
func (s *Server) ExecuteCalls() int {
	return int(s.executeCalls.Load())
}

// Requests returns the raw bodies of the execute calls received so far.
func (s *Server) Requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.requests...)
}

// LastUserAgent returns the User-Agent of the most recent request.
func (s *Server) LastUserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAgent
}

func (s *Server) handleRuntimes(w http.ResponseWriter, r *http.Request) {
	s.runtimesCalls.Add(1)

	s.mu.Lock()
	s.userAgent = r.UserAgent()
	langs, status := s.langs, s.runtimesStatus
	s.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		w.Write([]byte("upstream unavailable"))
		return
	}
	if langs == nil {
		langs = catalog.Catalog{}
	}
	writeJSON(w, http.StatusOK, langs)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	s.executeCalls.Add(1)
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.userAgent = r.UserAgent()
	s.requests = append(s.requests, body)
	fn := s.execute
	s.mu.Unlock()

	status, reply := fn(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, reply)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkgs := make([]map[string]any, 0, len(s.langs))
	for _, lang := range s.langs {
		pkgs = append(pkgs, map[string]any{
			"language":         lang.Name,
			"language_version": lang.Version,
			"installed":        true,
		})
	}
	writeJSON(w, http.StatusOK, pkgs)
}

func (s *Server) handlePackageChange(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Language string `json:"language"`
		Version  string `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Language == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "language is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, lang := range s.langs {
		if lang.Name == in.Language && (in.Version == "" || strings.HasPrefix(lang.Version, in.Version)) {
			idx = i
			break
		}
	}

	switch r.Method {
	case http.MethodPost:
		if idx >= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Already installed"})
			return
		}
		s.langs = append(s.langs, catalog.Language{Name: in.Language, Version: in.Version})
	case http.MethodDelete:
		if idx < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Not installed"})
			return
		}
		s.langs = append(s.langs[:idx:idx], s.langs[idx+1:]...)
	}
	writeJSON(w, http.StatusOK, in)
}

func echoRun(body []byte) (int, string) {
	var req struct {
		Language string `json:"language"`
		Version  string `json:"version"`
	}
	json.Unmarshal(body, &req)

	b, _ := json.Marshal(map[string]any{
		"language": req.Language,
		"version":  req.Version,
		"run": map[string]any{
			"code":   0,
			"output": "",
			"stdout": "",
			"stderr": "",
			"signal": nil,
		},
	})
	return http.StatusOK, string(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
