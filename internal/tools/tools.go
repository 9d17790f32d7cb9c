// Package tools defines the demo operations and resources served by mcpdemo.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/yourorg/mcpdemo/internal/registry"
)

// HealthURI is the address of the health resource.
const HealthURI = "status://health"

// Options configures the demo registrations.
type Options struct {
	// ServerName is the MCP server name reported by the health resource.
	ServerName string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Register adds echo, add and the health resource to reg.
func Register(reg *registry.Registry, opts Options) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ops := []registry.Operation{
		Echo(opts.Now),
		Add(),
	}
	for _, op := range ops {
		if err := reg.RegisterTool(op); err != nil {
			return fmt.Errorf("register tool %s: %w", op.Name, err)
		}
	}

	if err := reg.RegisterResource(Health(opts.ServerName)); err != nil {
		return fmt.Errorf("register resource %s: %w", HealthURI, err)
	}
	return nil
}

// Echo returns the text prefixed with the server's UTC time.
func Echo(now func() time.Time) registry.Operation {
	return registry.Operation{
		Name:        "echo",
		Description: "Echo a piece of text back, prefixed with the server's UTC time.",
		Params: []registry.Param{
			{Name: "text", Type: registry.TypeString, Required: true, Description: "Text to echo back"},
		},
		Returns: registry.TypeString,
		Handler: func(ctx context.Context, args registry.Args) (any, error) {
			stamp := now().UTC().Format(time.RFC3339Nano)
			return fmt.Sprintf("[server @ %s] %s", stamp, args.String("text")), nil
		},
	}
}

// Add returns the sum of two numbers.
func Add() registry.Operation {
	return registry.Operation{
		Name:        "add",
		Description: "Add two numbers and return the sum.",
		Params: []registry.Param{
			{Name: "a", Type: registry.TypeNumber, Required: true, Description: "First addend"},
			{Name: "b", Type: registry.TypeNumber, Required: true, Description: "Second addend"},
		},
		Returns: registry.TypeNumber,
		Handler: func(ctx context.Context, args registry.Args) (any, error) {
			return args.Float("a") + args.Float("b"), nil
		},
	}
}

// Health reports that the server is up.
func Health(serverName string) registry.Resource {
	return registry.Resource{
		URI:         HealthURI,
		Name:        "health",
		Description: "Server health information",
		MIMEType:    "application/json",
		Handler: func(ctx context.Context) (any, error) {
			return map[string]any{
				"name": serverName,
				"ok":   true,
			}, nil
		},
	}
}
