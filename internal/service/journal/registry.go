package journal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/heartmarshall/undojournal/internal/domain"
)

var (
	// ErrRegistryFrozen is returned by Register once the registry serves traffic.
	ErrRegistryFrozen = errors.New("handler registry is frozen")
	// ErrDuplicateHandler is returned when a name is registered twice.
	ErrDuplicateHandler = errors.New("handler already registered")
)

// HandlerFunc reverses or re-applies one recorded action. Undo receives the
// record's undo_data, redo receives its action_data. A returned error means
// the domain state diverged and the record keeps its status.
//
// ctx carries the journal transaction and the operation deadline. Handlers
// must honour ctx: once it is done they have to stop issuing queries and
// return, because the transaction is rolled back on the same connection.
type HandlerFunc func(ctx context.Context, payload domain.Payload) (domain.Payload, error)

// Handler is the undo/redo pair registered under one name.
type Handler struct {
	Name string
	Undo HandlerFunc
	Redo HandlerFunc
}

// forOp returns the function and the record payload it consumes.
func (h Handler) forOp(op domain.ToggleOp, rec *domain.UndoRecord) (HandlerFunc, domain.Payload) {
	if op == domain.OpRedo {
		return h.Redo, rec.ActionData
	}
	return h.Undo, rec.UndoData
}

// Registry maps handler names to undo/redo pairs. It is populated during
// startup by each domain module and frozen before the server accepts
// requests; after that it is read-only.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	frozen   bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler pair under name.
func (r *Registry) Register(name string, undo, redo HandlerFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("register handler: name is required")
	}
	if undo == nil || redo == nil {
		return fmt.Errorf("register handler %q: undo and redo are required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("register handler %q: %w", name, ErrRegistryFrozen)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("register handler %q: %w", name, ErrDuplicateHandler)
	}

	r.handlers[name] = Handler{Name: name, Undo: undo, Redo: redo}
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(name string, undo, redo HandlerFunc) {
	if err := r.Register(name, undo, redo); err != nil {
		panic(err)
	}
}

// Resolve returns the handler registered under name, or
// domain.ErrUnknownHandler.
func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	if !ok {
		return Handler{}, fmt.Errorf("%w: %q", domain.ErrUnknownHandler, name)
	}
	return h, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}
