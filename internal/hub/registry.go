// internal/hub/registry.go
package hub

import (
	"cmp"
	"slices"
	"strconv"
	"sync"
)

// Conn is the transport connection as seen by the hub. Implementations must
// be comparable (pointer types) since the registry keys on them, and Send
// must not block on a slow peer.
type Conn interface {
	ID() string
	Send(payload []byte) error
}

// Member is one registered connection and its display name.
type Member struct {
	Conn Conn
	Name string
}

// Snapshot is a point-in-time copy of the registry in join order.
type Snapshot []Member

// Names returns the display names in the snapshot.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for _, m := range s {
		names = append(names, m.Name)
	}
	return names
}

type entry struct {
	name string
	seq  uint64
}

// Registry tracks which connections are live and the name each was given.
// The name counter and the membership map share one lock, so a reader never
// sees a connection without its name.
type Registry struct {
	mu      sync.RWMutex
	members map[Conn]entry
	next    uint64
}

func NewRegistry() *Registry {
	return &Registry{
		members: make(map[Conn]entry),
		next:    1,
	}
}

// Join registers c under the next "UserN" name and returns it. Names are
// never reused. Joining a connection that is already registered returns its
// existing name without consuming a number.
func (r *Registry) Join(c Conn) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.members[c]; ok {
		return e.name
	}

	seq := r.next
	r.next++
	name := "User" + strconv.FormatUint(seq, 10)
	r.members[c] = entry{name: name, seq: seq}
	return name
}

// Leave removes c and returns the name it had. ok is false when c was not
// registered, which makes repeated close notifications harmless.
func (r *Registry) Leave(c Conn) (name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.members[c]
	if !ok {
		return "", false
	}
	delete(r.members, c)
	return e.name, true
}

// NameOf looks up the display name of c.
func (r *Registry) NameOf(c Conn) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.members[c]
	return e.name, ok
}

// Snapshot copies the current membership, ordered by join.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	type ordered struct {
		Member
		seq uint64
	}
	rows := make([]ordered, 0, len(r.members))
	for c, e := range r.members {
		rows = append(rows, ordered{Member: Member{Conn: c, Name: e.name}, seq: e.seq})
	}
	r.mu.RUnlock()

	slices.SortFunc(rows, func(a, b ordered) int {
		return cmp.Compare(a.seq, b.seq)
	})

	snap := make(Snapshot, len(rows))
	for i, row := range rows {
		snap[i] = row.Member
	}
	return snap
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
