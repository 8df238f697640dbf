package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// ChatBody mirrors the JSON body the backend receives on chat endpoints.
type ChatBody struct {
	Message      string `json:"message"`
	EnableSkills bool   `json:"enableSkills"`
	EnableMCP    bool   `json:"enableMCP"`
}

// MockBackend is an httptest server that speaks the langchat backend API.
// Stream chunks are flushed one at a time so clients observe real chunk
// boundaries.
type MockBackend struct {
	*httptest.Server

	mu       sync.Mutex
	requests []ChatBody

	// Health is written for GET {base}/health.
	Health string

	// Reply is written for POST {base}/chat.
	Reply string

	// Chunks are written for POST {base}/chat/stream.
	Chunks []string

	// Status, when non-zero, is returned by every endpoint instead of 200.
	Status int
}

// NewMockBackend starts a mock backend serving under basePath (e.g. "/api").
func NewMockBackend(basePath string) *MockBackend {
	m := &MockBackend{
		Health: `{"status":"ok","version":"test"}`,
		Reply:  `{"response":"pong"}`,
		Chunks: []string{"data: pong\n\n", "event: done\ndata: \n\n", "event: end\ndata: \n\n"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+basePath+"/health", func(w http.ResponseWriter, _ *http.Request) {
		if m.fail(w) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, m.Health)
	})
	mux.HandleFunc("POST "+basePath+"/chat", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		if m.fail(w) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, m.Reply)
	})
	mux.HandleFunc("POST "+basePath+"/chat/stream", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		if m.fail(w) {
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, chunk := range m.Chunks {
			_, _ = io.WriteString(w, chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
	})

	m.Server = httptest.NewServer(mux)
	return m
}

// Requests returns the chat bodies received so far.
func (m *MockBackend) Requests() []ChatBody {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatBody(nil), m.requests...)
}

func (m *MockBackend) record(r *http.Request) {
	var body ChatBody
	_ = json.NewDecoder(r.Body).Decode(&body)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, body)
}

func (m *MockBackend) fail(w http.ResponseWriter) bool {
	if m.Status == 0 || m.Status == http.StatusOK {
		return false
	}
	w.WriteHeader(m.Status)
	_, _ = io.WriteString(w, `{"error":"mock failure"}`)
	return true
}
