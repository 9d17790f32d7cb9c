package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mcpdemo/internal/registry"
)

func newRegistry(t *testing.T, now func() time.Time) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, Register(reg, Options{ServerName: "test-service", Now: now}))
	return reg
}

func TestRegister(t *testing.T) {
	reg := newRegistry(t, nil)

	for _, name := range []string{"echo", "add"} {
		_, err := reg.ResolveTool(name)
		assert.NoError(t, err, "tool %s should be registered", name)
	}

	_, err := reg.ResolveResource(HealthURI)
	assert.NoError(t, err)
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := newRegistry(t, nil)

	err := Register(reg, Options{ServerName: "again"})
	assert.ErrorIs(t, err, registry.ErrDuplicateName)
}

func TestEcho(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.FixedZone("PDT", -7*60*60))
	reg := newRegistry(t, func() time.Time { return fixed })

	out, err := reg.Invoke(context.Background(), "echo", map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "[server @ 2025-03-14T16:26:53.589793Z] hello", out)
}

func TestEchoFormat(t *testing.T) {
	reg := newRegistry(t, nil)

	inputs := []string{"hello", "", "multi word input", "ünïcödé"}
	for _, text := range inputs {
		out, err := reg.Invoke(context.Background(), "echo", map[string]any{"text": text})
		require.NoError(t, err)

		s, ok := out.(string)
		require.True(t, ok, "echo should return a string")
		require.True(t, strings.HasPrefix(s, "[server @ "), "got %q", s)
		require.True(t, strings.HasSuffix(s, "] "+text), "got %q", s)

		stamp := strings.TrimSuffix(strings.TrimPrefix(s, "[server @ "), "] "+text)
		parsed, err := time.Parse(time.RFC3339Nano, stamp)
		require.NoError(t, err, "timestamp %q should be ISO-8601", stamp)
		_, offset := parsed.Zone()
		assert.Zero(t, offset, "timestamp should be UTC")
	}
}

func TestEchoRequiresText(t *testing.T) {
	reg := newRegistry(t, nil)

	_, err := reg.Invoke(context.Background(), "echo", map[string]any{})
	assert.ErrorIs(t, err, registry.ErrValidation)

	_, err = reg.Invoke(context.Background(), "echo", map[string]any{"text": 42.0})
	assert.ErrorIs(t, err, registry.ErrValidation)
}

func TestAdd(t *testing.T) {
	reg := newRegistry(t, nil)

	tests := []struct {
		a, b, want float64
	}{
		{2.0, 3.0, 5.0},
		{-1.0, 1.0, 0.0},
		{1.5, 2.25, 3.75},
		{-4, -6, -10},
	}

	for _, tt := range tests {
		out, err := reg.Invoke(context.Background(), "add", map[string]any{"a": tt.a, "b": tt.b})
		require.NoError(t, err)
		assert.Equal(t, tt.want, out, "add(%v, %v)", tt.a, tt.b)
	}
}

func TestAddRejectsNonNumbers(t *testing.T) {
	reg := newRegistry(t, nil)

	_, err := reg.Invoke(context.Background(), "add", map[string]any{"a": "2", "b": 3.0})
	assert.ErrorIs(t, err, registry.ErrValidation)

	_, err = reg.Invoke(context.Background(), "add", map[string]any{"a": 2.0})
	assert.ErrorIs(t, err, registry.ErrValidation)
}

func TestHealth(t *testing.T) {
	reg := newRegistry(t, nil)

	out, err := reg.Read(context.Background(), HealthURI)
	require.NoError(t, err)

	payload, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, payload["ok"])
	assert.Equal(t, "test-service", payload["name"])
}
