package broker

import (
	"sort"
	"sync"
)

type member struct {
	username string
	seq      uint64
}

// Entry - point-in-time copy of single registry record.
type Entry struct {
	Conn     *Conn
	Username string
}

// Registry - authoritative mapping of live connections to usernames.
// All operations are atomic with respect to each other,
// none of them performs network I/O while holding the lock.
type Registry struct {
	mu   sync.RWMutex
	list map[*Conn]member
	seq  uint64
}

// NewRegistry - builds empty registry.
func NewRegistry() *Registry {
	return &Registry{
		list: make(map[*Conn]member),
	}
}

// Len - returns number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Lookup - returns username registered for the connection.
func (r *Registry) Lookup(conn *Conn) (username string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.list[conn]
	return m.username, ok
}

// Register - adds connection under given username.
// Fails with ErrConnKept if the connection is registered already.
func (r *Registry) Register(conn *Conn, username string) error {
	if conn == nil {
		return ErrNilConn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[conn]; ok {
		return ErrConnKept
	}
	r.seq++
	r.list[conn] = member{username, r.seq}
	return nil
}

// Unregister - removes connection, returns its username and true
// only for the call which actually removed it.
func (r *Registry) Unregister(conn *Conn) (username string, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.list[conn]
	if !ok {
		return "", false
	}
	delete(r.list, conn)
	return m.username, true
}

// Snapshot - returns copy of registry content ordered by registration time.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	members := make([]member, 0, len(r.list))
	entries := make([]Entry, 0, len(r.list))
	for conn, m := range r.list {
		members = append(members, m)
		entries = append(entries, Entry{conn, m.username})
	}
	r.mu.RUnlock()

	sort.Sort(bySeq{entries, members})
	return entries
}

type bySeq struct {
	entries []Entry
	members []member
}

func (s bySeq) Len() int           { return len(s.entries) }
func (s bySeq) Less(i, j int) bool { return s.members[i].seq < s.members[j].seq }
func (s bySeq) Swap(i, j int) {
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
	s.members[i], s.members[j] = s.members[j], s.members[i]
}
