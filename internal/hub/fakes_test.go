package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errFakeSend = errors.New("fake send failure")

// fakeConn records every payload sent to it. fail and panics make Send misbehave.
type fakeConn struct {
	id     string
	fail   bool
	panics bool

	mu   sync.Mutex
	sent [][]byte
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(payload []byte) error {
	if f.panics {
		panic("boom")
	}
	if f.fail {
		return errFakeSend
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), payload...))
	return nil
}

func (f *fakeConn) messages(t *testing.T) []map[string]interface{} {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]interface{}, 0, len(f.sent))
	for _, raw := range f.sent {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// recordingEvents collects published events.
type recordingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEvents) Publish(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEvents) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func system(content string) map[string]interface{} {
	return map[string]interface{}{"type": "system", "content": content}
}

func userlist(names ...string) map[string]interface{} {
	users := make([]interface{}, 0, len(names))
	for _, n := range names {
		users = append(users, n)
	}
	return map[string]interface{}{"type": "userlist", "users": users}
}
