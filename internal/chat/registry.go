package chat

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrUnknownConnection is returned when a join targets a connection id the
// registry has never seen or has already forgotten.
var ErrUnknownConnection = errors.New("unknown connection")

// Registry maps logical user ids to their live connections. It is purely
// in-memory and process-local; on restart it starts empty and clients are
// expected to reconnect and rejoin.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Conn            // connection id -> connection
	bound  map[string]string           // connection id -> user id
	byUser map[string]map[string]*Conn // user id -> connection id -> connection

	log *zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*Conn),
		bound:  make(map[string]string),
		byUser: make(map[string]map[string]*Conn),
		log:    logger,
	}
}

// Register makes the connection known to the registry. It carries no user
// binding until Join is called.
func (r *Registry) Register(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID] = conn
}

// Unregister releases any binding and forgets the connection. Transport
// disconnect is treated identically to an explicit leave.
func (r *Registry) Unregister(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(conn.ID)
	delete(r.conns, conn.ID)
}

// Join binds the connection to a user. A previous binding for the same
// connection is released first, so a connection holds at most one binding
// at any instant. Joining again with the same user is idempotent. A joined
// acknowledgement event is pushed onto the connection.
func (r *Registry) Join(connID, userID string) error {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownConnection
	}

	if prev, bound := r.bound[connID]; !bound || prev != userID {
		r.releaseLocked(connID)
		r.bound[connID] = userID
		userConns, ok := r.byUser[userID]
		if !ok {
			userConns = make(map[string]*Conn)
			r.byUser[userID] = userConns
		}
		userConns[connID] = conn
	}
	r.mu.Unlock()

	r.log.Debug().Str("conn_id", connID).Str("user_id", userID).Msg("connection joined")

	conn.push(Event{Kind: EventJoined, UserID: userID})
	return nil
}

// Leave releases whatever binding exists for the connection. Leaving an
// unbound connection is a no-op, not an error.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(connID)
}

// Resolve returns a snapshot of all live connections currently bound to the
// user. The slice is empty when the user has none.
func (r *Registry) Resolve(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns := r.byUser[userID]
	out := make([]*Conn, 0, len(userConns))
	for _, conn := range userConns {
		out = append(out, conn)
	}
	return out
}

// releaseLocked removes the connection's user binding. Caller holds r.mu.
func (r *Registry) releaseLocked(connID string) {
	userID, ok := r.bound[connID]
	if !ok {
		return
	}
	delete(r.bound, connID)
	if userConns := r.byUser[userID]; userConns != nil {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.byUser, userID)
		}
	}
}
