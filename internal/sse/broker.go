// Package sse streams note change events to HTTP clients as Server-Sent Events.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/notify"
	"github.com/starford/notepad/internal/resource"
)

// Subscriber registers observers by resource identifier.
type Subscriber interface {
	Subscribe(uri string, descendants bool) (*notify.Subscription, error)
}

// Broker bridges notifier subscriptions to SSE connections. Each connection
// owns one subscription for the identifier given in its "uri" query
// parameter, so filtering happens in the notifier, not here.
type Broker struct {
	subs      Subscriber
	keepalive time.Duration
	logger    *slog.Logger

	clients atomic.Int64
}

// NewBroker creates a broker. A non-positive keepalive defaults to 15s.
func NewBroker(subs Subscriber, keepalive time.Duration, logger *slog.Logger) *Broker {
	if keepalive <= 0 {
		keepalive = 15 * time.Second
	}
	return &Broker{subs: subs, keepalive: keepalive, logger: logger}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	return int(b.clients.Load())
}

// Format renders a change as an SSE message.
func Format(c notify.Change) ([]byte, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: note.%s\ndata: %s\n\n", c.Kind, payload), nil
}

// ServeHTTP is the SSE endpoint handler (GET /api/events?uri=notes&descendants=true).
// uri defaults to "notes" and descendants defaults to true, so a bare request
// sees every mutation including inserts, which publish "notes/<id>". Pass
// descendants=false to see only collection-wide updates and deletes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	uri := q.Get("uri")
	if uri == "" {
		uri = resource.NotesPath
	}
	descendants := true
	if raw := q.Get("descendants"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid descendants parameter", http.StatusBadRequest)
			return
		}
		descendants = v
	}

	sub, err := b.subs.Subscribe(uri, descendants)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, apperr.ErrUnknownResource) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer sub.Close()

	b.clients.Add(1)
	defer b.clients.Add(-1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	b.logger.Debug("sse: client connected",
		slog.String("uri", sub.Scope.URI()),
		slog.Bool("descendants", descendants))

	ticker := time.NewTicker(b.keepalive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case c, ok := <-sub.C:
			if !ok {
				return
			}
			msg, err := Format(c)
			if err != nil {
				b.logger.Error("sse: encode change", slog.String("error", err.Error()))
				continue
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
