// Package suspense defers the rendering of slow components. A page renders a
// boundary's fallback synchronously; the browser then requests the boundary
// by id and swaps in the resolved content.
//
// Each mount moves through exactly two states, Pending and Ready. There is no
// cancellation: a loader that hangs keeps its request waiting.
package suspense

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"sync"

	"github.com/a-h/templ"
)

// State is the lifecycle state of a mount.
type State int

const (
	Pending State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrUnknownBoundary is returned by Registry.Lookup for an unregistered id.
var ErrUnknownBoundary = errors.New("suspense: unknown boundary")

// Loader resolves the deferred content of a boundary.
type Loader func(ctx context.Context) (templ.Component, error)

var validID = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Boundary pairs a loader with the placeholder shown while it is pending.
type Boundary struct {
	ID       string
	Fallback templ.Component
	Load     Loader
	// Path is the URL the client fetches to resolve the boundary.
	Path string
}

// NewBoundary returns a boundary resolved at basePath/id.
func NewBoundary(id string, fallback templ.Component, load Loader, basePath string) (*Boundary, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("suspense: invalid boundary id %q", id)
	}
	if load == nil {
		return nil, fmt.Errorf("suspense: boundary %q has no loader", id)
	}
	if fallback == nil {
		fallback = templ.NopComponent
	}
	return &Boundary{ID: id, Fallback: fallback, Load: load, Path: basePath + "/" + id}, nil
}

// Mount starts a new Pending mount of b.
func (b *Boundary) Mount() *Mount {
	return &Mount{boundary: b}
}

// Mount is one use of a boundary on a page.
type Mount struct {
	boundary *Boundary

	mu      sync.Mutex
	state   State
	content templ.Component
}

// State reports the current state.
func (m *Mount) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Resolve runs the loader and moves the mount to Ready. A failed load leaves
// it Pending and returns the error. Resolving a Ready mount does nothing.
func (m *Mount) Resolve(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Ready {
		return nil
	}
	c, err := m.boundary.Load(ctx)
	if err != nil {
		return fmt.Errorf("suspense: resolve %s: %w", m.boundary.ID, err)
	}
	if c == nil {
		c = templ.NopComponent
	}
	m.content = c
	m.state = Ready
	return nil
}

// Component renders the fallback while Pending and the content once Ready,
// each wrapped in an element the client script can find and replace.
func (m *Mount) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m.mu.Lock()
		state, content := m.state, m.content
		m.mu.Unlock()

		b := m.boundary
		var buf bytes.Buffer
		buf.WriteString(`<div`)
		writeAttr(&buf, "id", "suspense-"+b.ID)
		writeAttr(&buf, "data-suspense-state", state.String())
		inner := content
		if state == Pending {
			writeAttr(&buf, "data-suspense-src", b.Path)
			inner = b.Fallback
		}
		buf.WriteString(`>`)
		if err := inner.Render(ctx, &buf); err != nil {
			return err
		}
		buf.WriteString(`</div>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(templ.EscapeString(value))
	buf.WriteByte('"')
}

// Registry holds the boundaries an application can resolve by id.
type Registry struct {
	mu         sync.RWMutex
	basePath   string
	boundaries map[string]*Boundary
}

// NewRegistry returns an empty registry whose boundaries resolve under basePath.
func NewRegistry(basePath string) *Registry {
	return &Registry{basePath: basePath, boundaries: make(map[string]*Boundary)}
}

// Register adds a boundary. Ids must be unique.
func (r *Registry) Register(id string, fallback templ.Component, load Loader) (*Boundary, error) {
	b, err := NewBoundary(id, fallback, load, r.basePath)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boundaries[id]; ok {
		return nil, fmt.Errorf("suspense: boundary %q already registered", id)
	}
	r.boundaries[id] = b
	return b, nil
}

// Lookup returns the boundary registered under id.
func (r *Registry) Lookup(id string) (*Boundary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boundaries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoundary, id)
	}
	return b, nil
}

// IDs lists registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.boundaries))
	for id := range r.boundaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
