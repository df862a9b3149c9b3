package moex

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avolkov/moex-iss-data/internal/iss"
)

// fakeISS is an httptest-backed ISS API stub. Routes are keyed by path
// without the ".json" suffix; hits are counted per route.
type fakeISS struct {
	t      *testing.T
	server *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newFakeISS(t *testing.T) *fakeISS {
	f := &fakeISS{
		t:      t,
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, ".json")

		f.mu.Lock()
		handler, ok := f.routes[path]
		f.hits[path]++
		f.mu.Unlock()

		if !ok {
			t.Errorf("unexpected request: %s", r.URL)
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	return f
}

// handle serves a fixed body on a path.
func (f *fakeISS) handle(path, body string) {
	f.handleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
}

func (f *fakeISS) handleFunc(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = h
}

func (f *fakeISS) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newTestSession(t *testing.T, f *fakeISS, opts ...iss.ClientOption) *Session {
	opts = append([]iss.ClientOption{
		iss.WithRetries(0, time.Millisecond),
	}, opts...)
	client := iss.NewClient(f.server.URL+"/", f.server.URL+"/authenticate", opts...)
	return NewSession(client)
}
