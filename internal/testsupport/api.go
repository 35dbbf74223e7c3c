package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// APIServer is a fake Podcast Index API. Routes map an endpoint path (for
// example "/episodes/byfeedid") to a handler; unknown paths answer 404.
type APIServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []*http.Request
}

// NewAPIServer starts a fake API server closed at test cleanup.
func NewAPIServer(t testing.TB) *APIServer {
	t.Helper()

	s := &APIServer{routes: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers fn for path.
func (s *APIServer) Handle(path string, fn http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = fn
}

// HandleJSON registers a route that always answers with payload.
func (s *APIServer) HandleJSON(path string, payload any) {
	s.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, payload)
	})
}

// Requests returns a snapshot of the requests served so far.
func (s *APIServer) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*http.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *APIServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r)
	fn := s.routes[strings.TrimSuffix(r.URL.Path, "/")]
	s.mu.Unlock()

	if fn == nil {
		http.NotFound(w, r)
		return
	}
	fn(w, r)
}

// WriteJSON encodes payload as a JSON response body.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
