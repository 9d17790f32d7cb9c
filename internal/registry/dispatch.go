package registry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidationError describes why an argument was rejected.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Param == "" {
		return e.Reason
	}
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Reason)
}

// Is reports ErrValidation so callers can match on the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ExecutionError wraps a failure raised while running a handler.
type ExecutionError struct {
	Target string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports ErrExecution so callers can match on the sentinel.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// Validate checks args against the parameters declared by op.
// Unknown arguments are rejected. A nil map is treated as empty.
func Validate(op Operation, args map[string]any) (Args, error) {
	declared := make(map[string]Param, len(op.Params))
	for _, p := range op.Params {
		declared[p.Name] = p
	}

	var unknown []string
	for name := range args {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ValidationError{Reason: "unexpected arguments: " + strings.Join(unknown, ", ")}
	}

	out := make(Args, len(args))
	for _, p := range op.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, &ValidationError{Param: p.Name, Reason: "is required"}
			}
			continue
		}
		if err := checkType(p, v); err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

func checkType(p Param, v any) error {
	if !matchesType(p.Type, v) {
		return &ValidationError{Param: p.Name, Reason: fmt.Sprintf("expected %s, got %T", p.Type, v)}
	}
	return nil
}

// matchesType reports whether a decoded JSON value has type t
func matchesType(t ParamType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		_, ok := v.(float64)
		return ok
	case TypeInteger:
		f, ok := v.(float64)
		return ok && f == math.Trunc(f) && !math.IsInf(f, 0)
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	}
	return false
}

// Invoke resolves, validates and runs the named operation.
// Handler failures, including panics and results that do not match
// op.Returns, are returned as *ExecutionError.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	op, err := r.ResolveTool(name)
	if err != nil {
		return nil, err
	}
	validated, err := Validate(op, args)
	if err != nil {
		return nil, err
	}
	result, err := execute(ctx, op.Name, func(ctx context.Context) (any, error) {
		return op.Handler(ctx, validated)
	})
	if err != nil {
		return nil, err
	}
	if op.Returns != "" && !matchesType(op.Returns, result) {
		return nil, &ExecutionError{
			Target: op.Name,
			Err:    fmt.Errorf("result: expected %s, got %T", op.Returns, result),
		}
	}
	return result, nil
}

// Read resolves the resource at uri and produces its payload.
func (r *Registry) Read(ctx context.Context, uri string) (any, error) {
	res, err := r.ResolveResource(uri)
	if err != nil {
		return nil, err
	}
	return execute(ctx, res.URI, res.Handler)
}

func execute(ctx context.Context, target string, fn func(context.Context) (any, error)) (result any, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &ExecutionError{Target: target, Err: ctxErr}
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &ExecutionError{Target: target, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		var execErr *ExecutionError
		if errors.As(err, &execErr) {
			return nil, err
		}
		return nil, &ExecutionError{Target: target, Err: err}
	}
	return result, nil
}

// Kind classifies err into the names used in error payloads.
// A handler failure is always "execution", whatever the handler returned.
func Kind(err error) string {
	var execErr *ExecutionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &execErr):
		return "execution"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrDuplicateURI):
		return "duplicate"
	default:
		return "internal"
	}
}
