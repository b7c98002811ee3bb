// AngelaMos | 2026
// sse.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// SSEWriter frames Server-Sent Events on a flushed response.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

func (s *SSEWriter) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("write %s: %w", event, err)
	}
	s.flusher.Flush()

	return nil
}

// Ping writes a comment line so idle proxies keep the stream open.
func (s *SSEWriter) Ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}
	s.flusher.Flush()
	return nil
}
