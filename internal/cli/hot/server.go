package hot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/livebud/devbridge/internal/devserver"
	"github.com/livebud/devbridge/internal/pubsub"
)

const (
	// Topic that triggers a browser reload. The payload is the changed path.
	Topic = "reload"
	// ClientPath serves the script that listens for reloads
	ClientPath = devserver.VirtualFilePrefix + "hot.js"
	// EventPath serves the event stream
	EventPath = devserver.VirtualFilePrefix + "hot"
)

const client = `const source = new EventSource(%q);
source.addEventListener("message", (e) => {
  const data = JSON.parse(e.data);
  if (data.reload) location.reload();
});
`

// New server-sent event (SSE) server
func New(ps pubsub.Subscriber) *Server {
	return &Server{ps, time.Now}
}

// Server streams reload events to the browser. It's also a dev server plugin
// that serves the client script.
type Server struct {
	ps  pubsub.Subscriber
	Now func() time.Time // Used for testing
}

var _ devserver.FileServer = (*Server)(nil)

func (s *Server) Name() string {
	return "hot"
}

func (s *Server) ServeFile(ctx context.Context, c *devserver.Context) (*devserver.ServeResult, error) {
	if c.Path != ClientPath {
		return nil, nil
	}
	return &devserver.ServeResult{
		Body: fmt.Sprintf(client, EventPath),
		Type: "js",
	}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Take control of flushing
	flusher, ok := w.(http.Flusher)
	if !ok {
		err := fmt.Errorf("hot: response writer is not a flusher")
		http.Error(w, err.Error(), 500)
		return
	}
	// Subscribe before flushing so the client never misses a reload sent
	// right after it connects
	subscription := s.ps.Subscribe(Topic)
	defer subscription.Close()
	headers := w.Header()
	headers.Add(`Content-Type`, `text/event-stream`)
	headers.Add(`Cache-Control`, `no-cache`)
	headers.Add(`Connection`, `keep-alive`)
	headers.Add(`Access-Control-Allow-Origin`, "*")
	flusher.Flush()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-subscription.Wait():
			if err := s.reload(w, string(path)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

type reload struct {
	Reload bool   `json:"reload"`
	Path   string `json:"path,omitempty"`
}

func (s *Server) reload(w http.ResponseWriter, path string) error {
	data, err := json.Marshal(reload{Reload: true, Path: path})
	if err != nil {
		return err
	}
	event := &Event{
		ID:   strconv.FormatInt(s.Now().UnixMilli(), 10),
		Data: data,
	}
	_, err = w.Write(event.Format().Bytes())
	return err
}

// https://html.spec.whatwg.org/multipage/server-sent-events.html#event-stream-interpretation
type Event struct {
	ID    string // id (optional)
	Type  string // event type (optional)
	Data  []byte // data
	Retry int    // retry (optional)
}

func (e *Event) Format() *bytes.Buffer {
	b := new(bytes.Buffer)
	if e.ID != "" {
		b.WriteString("id: " + e.ID + "\n")
	}
	if e.Type != "" {
		b.WriteString("event: " + e.Type + "\n")
	}
	if len(e.Data) > 0 {
		b.WriteString("data: ")
		b.Write(e.Data)
		b.WriteByte('\n')
	}
	if e.Retry > 0 {
		b.WriteString("retry: " + strconv.Itoa(e.Retry) + "\n")
	}
	b.WriteByte('\n')
	return b
}
