// Package registry holds the named operations and resources a server exposes
// and dispatches calls to them.
//
// A Registry is populated once during startup and is read-only afterwards, so
// lookups need no locking. Registration must finish before the registry is
// handed to a transport.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotFound is returned when no operation or resource matches a lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when an operation name is already registered.
	ErrDuplicateName = errors.New("duplicate operation name")

	// ErrDuplicateURI is returned when a resource URI is already registered.
	ErrDuplicateURI = errors.New("duplicate resource uri")

	// ErrValidation is returned when call arguments do not match the declared parameters.
	ErrValidation = errors.New("validation failed")

	// ErrExecution is returned when a handler fails or panics.
	ErrExecution = errors.New("execution failed")

	// ErrInvalidDefinition is returned when an operation or resource cannot be registered as defined.
	ErrInvalidDefinition = errors.New("invalid definition")
)

// ParamType is the JSON type a parameter accepts.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// Param declares one named, typed argument of an operation.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Args are validated call arguments keyed by parameter name.
type Args map[string]any

// String returns the named argument, or "" if absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Float returns the named argument as float64, or 0 if absent.
func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// HandlerFunc implements an operation.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// ResourceFunc produces the payload of a resource.
type ResourceFunc func(ctx context.Context) (any, error)

// Operation is a named, invocable unit of server-side logic.
type Operation struct {
	Name        string
	Description string
	Params      []Param
	// Returns is the JSON type of the handler's result. Invoke rejects a
	// result of any other type. Empty accepts anything.
	Returns     ParamType
	Handler     HandlerFunc
}

// Resource is a read-only payload addressed by URI.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Handler     ResourceFunc
}

// Registry maps operation names and resource URIs to their definitions.
type Registry struct {
	tools     map[string]Operation
	resources map[string]Resource
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		tools:     make(map[string]Operation),
		resources: make(map[string]Resource),
	}
}

// RegisterTool adds an operation. Registering a name twice fails with ErrDuplicateName.
func (r *Registry) RegisterTool(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("%w: operation name is empty", ErrInvalidDefinition)
	}
	if op.Handler == nil {
		return fmt.Errorf("%w: operation %q has no handler", ErrInvalidDefinition, op.Name)
	}
	seen := make(map[string]bool, len(op.Params))
	for _, p := range op.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: operation %q has an unnamed parameter", ErrInvalidDefinition, op.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: operation %q declares parameter %q twice", ErrInvalidDefinition, op.Name, p.Name)
		}
		if !p.Type.valid() {
			return fmt.Errorf("%w: parameter %q has unknown type %q", ErrInvalidDefinition, p.Name, p.Type)
		}
		seen[p.Name] = true
	}
	if op.Returns != "" && !op.Returns.valid() {
		return fmt.Errorf("%w: operation %q has unknown return type %q", ErrInvalidDefinition, op.Name, op.Returns)
	}
	if _, exists := r.tools[op.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, op.Name)
	}

	// Copy params so later mutation by the caller cannot change the registered schema.
	op.Params = append([]Param(nil), op.Params...)
	r.tools[op.Name] = op
	return nil
}

// RegisterResource adds a resource. Registering a URI twice fails with ErrDuplicateURI.
func (r *Registry) RegisterResource(res Resource) error {
	if res.URI == "" {
		return fmt.Errorf("%w: resource uri is empty", ErrInvalidDefinition)
	}
	if res.Handler == nil {
		return fmt.Errorf("%w: resource %q has no handler", ErrInvalidDefinition, res.URI)
	}
	if _, exists := r.resources[res.URI]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateURI, res.URI)
	}
	if res.Name == "" {
		res.Name = res.URI
	}
	r.resources[res.URI] = res
	return nil
}

// ResolveTool returns the operation registered under name.
func (r *Registry) ResolveTool(name string) (Operation, error) {
	op, ok := r.tools[name]
	if !ok {
		return Operation{}, fmt.Errorf("operation %q: %w", name, ErrNotFound)
	}
	return op, nil
}

// ResolveResource returns the resource registered under uri.
func (r *Registry) ResolveResource(uri string) (Resource, error) {
	res, ok := r.resources[uri]
	if !ok {
		return Resource{}, fmt.Errorf("resource %q: %w", uri, ErrNotFound)
	}
	return res, nil
}

// Tools returns all operations ordered by name.
func (r *Registry) Tools() []Operation {
	ops := make([]Operation, 0, len(r.tools))
	for _, op := range r.tools {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// Resources returns all resources ordered by URI.
func (r *Registry) Resources() []Resource {
	out := make([]Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

func (t ParamType) valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}
