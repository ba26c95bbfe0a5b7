package bridge

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Registry tracks live bridges by session id so the rest of the process can
// observe active sessions.
type Registry struct {
	deps Deps

	mu      sync.Mutex
	bridges map[string]*Bridge
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:    deps,
		bridges: make(map[string]*Bridge),
	}
}

// Serve creates a bridge for conn, runs it to completion, and returns the
// session id it ran under. It blocks for the lifetime of the session.
func (r *Registry) Serve(ctx context.Context, conn ClientConn, info SessionInfo) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()

	b := New(id, conn, r.deps, info)
	r.mu.Lock()
	r.bridges[id] = b
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.bridges, id)
		r.mu.Unlock()
	}()

	b.Run(ctx)
	return id
}

func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bridges)
}
