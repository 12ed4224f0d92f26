package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// lokiQueueSize bounds buffered remote entries; further entries are dropped.
const lokiQueueSize = 1024

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiEntry struct {
	at      time.Time
	level   string
	message string
	attrs   []slog.Attr
}

// lokiShipper pushes entries to a Loki endpoint from a single goroutine.
type lokiShipper struct {
	uri    string
	job    string
	client *http.Client
	queue  chan lokiEntry
	once   sync.Once
}

var shipper struct {
	mu sync.RWMutex
	s  *lokiShipper
}

func newLokiShipper(uri, job string) *lokiShipper {
	return &lokiShipper{
		uri:    uri,
		job:    job,
		client: &http.Client{Timeout: 5 * time.Second},
		queue:  make(chan lokiEntry, lokiQueueSize),
	}
}

func (l *lokiShipper) start() {
	l.once.Do(func() {
		go func() {
			for e := range l.queue {
				l.push(e)
			}
		}()
	})
}

func (l *lokiShipper) enqueue(e lokiEntry) {
	select {
	case l.queue <- e:
	default:
		// stderr only, never block the caller
		fmt.Fprintln(os.Stderr, "remote log queue full, dropping entry")
	}
}

func (l *lokiShipper) push(e lokiEntry) {
	body, err := json.Marshal(buildPush(l.job, e))
	if err != nil {
		fmt.Fprintf(os.Stderr, "remote log marshal: %v\n", err)
		return
	}

	resp, err := l.client.Post(l.uri, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "remote log send: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "remote log status: %d\n", resp.StatusCode)
	}
}

// buildPush wraps one entry in a Loki push payload with level and job labels.
func buildPush(job string, e lokiEntry) lokiPush {
	line := make(map[string]any, len(e.attrs)+3)
	for _, a := range e.attrs {
		line[a.Key] = a.Value.Any()
	}
	line["level"] = e.level
	line["message"] = e.message
	line["time"] = e.at.Format(time.RFC3339)

	encoded, _ := json.Marshal(line)
	return lokiPush{Streams: []lokiStream{{
		Stream: map[string]string{"level": e.level, "job": job},
		Values: [][2]string{{strconv.FormatInt(e.at.UnixNano(), 10), string(encoded)}},
	}}}
}

func setShipper(uri, job string) {
	shipper.mu.Lock()
	defer shipper.mu.Unlock()
	if uri == "" {
		shipper.s = nil
		return
	}
	shipper.s = newLokiShipper(uri, job)
	shipper.s.start()
}

// ship forwards an entry when remote logging is configured.
func ship(level, message string, attrs []slog.Attr) {
	shipper.mu.RLock()
	s := shipper.s
	shipper.mu.RUnlock()
	if s == nil {
		return
	}
	s.enqueue(lokiEntry{at: time.Now(), level: level, message: message, attrs: attrs})
}
