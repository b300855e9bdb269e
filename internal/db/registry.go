package db

import (
	"context"
	"errors"
	"sync"

	"github.com/Rana718/dbkeeper/internal/config"
)

// Registry opens named connections on first use and closes them together.
type Registry struct {
	cfg  *config.Config
	mu   sync.Mutex
	open map[string]*Connection
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg, open: make(map[string]*Connection)}
}

// Get returns the named connection, connecting it if needed.
func (r *Registry) Get(ctx context.Context, name string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.open[name]; ok {
		return conn, nil
	}

	conn, err := Open(ctx, r.cfg, name)
	if err != nil {
		return nil, err
	}
	r.open[name] = conn
	return conn, nil
}

// Put registers an already opened connection under its name.
func (r *Registry) Put(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[conn.Name()] = conn
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, conn := range r.open {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.open, name)
	}
	return errors.Join(errs...)
}
