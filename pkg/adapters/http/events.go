package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/halu886/warehouse/internal/logging"
	"github.com/halu886/warehouse/pkg/domain"
)

// StreamManager fans document diffs out to the SSE subscribers of each
// collection.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // collection -> set of channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for collection. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(collection string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[collection]; !ok {
		sm.subscribers[collection] = make(map[chan<- string]struct{})
	}
	sm.subscribers[collection][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[collection]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, collection)
			}
		}
	}
}

// Subscribers returns the number of active subscribers of collection.
func (sm *StreamManager) Subscribers(collection string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[collection])
}

// Broadcast sends msg to every subscriber of collection. Slow subscribers
// lose the message rather than block the writer.
func (sm *StreamManager) Broadcast(collection string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[collection] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "collection", collection)
		}
	}
}

// SubscribeEvents handles GET /collections/{name}/events (SSE). The optional
// watch parameter lists the paths a client cares about; diffs touching none
// of them are skipped.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, path := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(path))
		}
	}

	ch, cancel := s.Streams.Subscribe(c.Name)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "collection", c.Name)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !touches(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// touches reports whether the encoded diff changes one of the watched
// top-level paths.
func touches(msg string, watch []string) bool {
	var diff domain.DocumentDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, path := range watch {
		top, _, _ := strings.Cut(path, ".")
		if _, ok := diff.Changed[top]; ok {
			return true
		}
	}
	return false
}
