// Package registry holds schema descriptors and the process-wide catalogue
// of named schemas that document assembly reads from.
package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	j "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyName is returned when a schema is registered without a name.
	ErrEmptyName = errors.New("registry: empty schema name")
	// ErrNilSchema is returned when a nil schema is registered.
	ErrNilSchema = errors.New("registry: nil schema")
	// ErrSchemaConflict indicates two different schemas claimed one name.
	ErrSchemaConflict = errors.New("registry: conflicting schema registration")
)

// ConflictError carries both sides of a conflicting registration.
type ConflictError struct {
	Name     string
	Existing *Schema
	Incoming *Schema
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry: schema %q already registered with a different definition", e.Name)
}

func (e *ConflictError) Unwrap() error { return ErrSchemaConflict }

// Registry maps canonical type names to schemas. Entries are never removed.
//
// Registration is expected to run once at startup before requests are
// served; the lock makes concurrent reads after that pass safe.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	visited map[string]bool
	log     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and conflict events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{schemas: make(map[string]*Schema), visited: make(map[string]bool), log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts s under name. It reports added=true when the name was
// new. Re-registering an equal schema is a no-op; a different schema under
// an existing name fails with a *ConflictError and leaves the entry as is.
//
// Callers registering a composite shape insert their own entry first and
// then descend into nested shapes through Visit.
func (r *Registry) Register(name string, s *Schema) (added bool, err error) {
	if name == "" {
		return false, ErrEmptyName
	}
	if s == nil {
		return false, ErrNilSchema
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.schemas[name]; ok {
		if old.Equal(s) {
			return false, nil
		}
		r.log.Warn("schema.conflict",
			slog.String("name", name),
			slog.String("existing_type", old.Type),
			slog.String("incoming_type", s.Type))
		return false, &ConflictError{Name: name, Existing: old, Incoming: s}
	}
	r.schemas[name] = s
	r.log.Debug("schema.registered", slog.String("name", name), slog.String("type", s.Type))
	return true, nil
}

// Visit runs fn, which registers the shapes nested in name, unless a visit
// of name already completed or is in progress further up the call stack.
// The in-progress mark is what terminates self-referential shapes. A failed
// fn clears the mark, so registering the shape again descends again instead
// of reporting success for a partially registered graph.
func (r *Registry) Visit(name string, fn func() error) error {
	r.mu.Lock()
	if r.visited[name] {
		r.mu.Unlock()
		return nil
	}
	r.visited[name] = true
	r.mu.Unlock()

	if err := fn(); err != nil {
		r.mu.Lock()
		delete(r.visited, name)
		r.mu.Unlock()
		return err
	}
	return nil
}

// Lookup returns the schema registered under name. The returned schema must
// not be modified.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Resolve follows a reference, or returns the inline schema.
func (r *Registry) Resolve(ref SchemaRef) (*Schema, bool) {
	if !ref.IsReference() {
		return ref.Inline, ref.Inline != nil
	}
	return r.Lookup(ref.Ref)
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Schemas returns a snapshot of the name to schema mapping.
func (r *Registry) Schemas() map[string]*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Schema, len(r.schemas))
	for k, v := range r.schemas {
		out[k] = v
	}
	return out
}

type components struct {
	Schemas *orderedmap.OrderedMap[string, *Schema] `json:"schemas" yaml:"schemas"`
}

func (r *Registry) components() components {
	names := r.Names()
	m := orderedmap.New[string, *Schema](len(names))
	for _, n := range names {
		s, _ := r.Lookup(n)
		m.Set(n, s)
	}
	return components{Schemas: m}
}

// MarshalJSON renders the components fragment {"schemas": {...}} with
// names sorted.
func (r *Registry) MarshalJSON() ([]byte, error) { return j.Marshal(r.components()) }

// WriteYAML writes the components fragment as YAML.
func (r *Registry) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.components()); err != nil {
		return err
	}
	return enc.Close()
}
