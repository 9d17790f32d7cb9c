package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumOperation() Operation {
	return Operation{
		Name: "sum",
		Params: []Param{
			{Name: "a", Type: TypeNumber, Required: true},
			{Name: "b", Type: TypeNumber, Required: true},
			{Name: "label", Type: TypeString},
		},
		Returns: TypeNumber,
		Handler: func(ctx context.Context, args Args) (any, error) {
			return args.Float("a") + args.Float("b"), nil
		},
	}
}

func TestValidate(t *testing.T) {
	op := Operation{
		Name: "typed",
		Params: []Param{
			{Name: "s", Type: TypeString, Required: true},
			{Name: "n", Type: TypeNumber},
			{Name: "i", Type: TypeInteger},
			{Name: "b", Type: TypeBoolean},
			{Name: "o", Type: TypeObject},
			{Name: "l", Type: TypeArray},
		},
		Handler: constHandler(nil),
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantParam string
		wantErr   bool
	}{
		{
			name: "all types valid",
			args: map[string]any{
				"s": "x", "n": 1.5, "i": 3.0, "b": true,
				"o": map[string]any{"k": "v"}, "l": []any{1.0},
			},
		},
		{
			name: "optional omitted",
			args: map[string]any{"s": "x"},
		},
		{
			name:      "required missing",
			args:      map[string]any{"n": 1.0},
			wantParam: "s",
			wantErr:   true,
		},
		{
			name:      "required null",
			args:      map[string]any{"s": nil},
			wantParam: "s",
			wantErr:   true,
		},
		{
			name:      "string given number",
			args:      map[string]any{"s": 1.0},
			wantParam: "s",
			wantErr:   true,
		},
		{
			name:      "number given string",
			args:      map[string]any{"s": "x", "n": "1"},
			wantParam: "n",
			wantErr:   true,
		},
		{
			name:      "integer given fraction",
			args:      map[string]any{"s": "x", "i": 2.5},
			wantParam: "i",
			wantErr:   true,
		},
		{
			name:      "boolean given string",
			args:      map[string]any{"s": "x", "b": "true"},
			wantParam: "b",
			wantErr:   true,
		},
		{
			name:      "object given array",
			args:      map[string]any{"s": "x", "o": []any{}},
			wantParam: "o",
			wantErr:   true,
		},
		{
			name:    "unknown argument",
			args:    map[string]any{"s": "x", "extra": 1.0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(op, tt.args)
			if !tt.wantErr {
				require.NoError(t, err)
				for k, v := range tt.args {
					assert.Equal(t, v, got[k])
				}
				return
			}

			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantParam, verr.Param)
		})
	}
}

func TestInvoke(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterTool(sumOperation()))

	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"positive", 2, 3, 5},
		{"cancel out", -1, 1, 0},
		{"fractions", 0.25, 0.5, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := reg.Invoke(context.Background(), "sum", map[string]any{"a": tt.a, "b": tt.b})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestInvokeErrors(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterTool(sumOperation()))
	require.NoError(t, reg.RegisterTool(Operation{
		Name: "fails",
		Handler: func(context.Context, Args) (any, error) {
			return nil, errors.New("backend unavailable")
		},
	}))
	require.NoError(t, reg.RegisterTool(Operation{
		Name: "panics",
		Handler: func(context.Context, Args) (any, error) {
			panic("boom")
		},
	}))

	t.Run("unknown operation", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "nope", nil)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "not_found", Kind(err))
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "sum", map[string]any{"a": "2"})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "validation", Kind(err))
	})

	t.Run("handler error", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "fails", nil)
		require.ErrorIs(t, err, ErrExecution)
		assert.Contains(t, err.Error(), "backend unavailable")

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "fails", execErr.Target)
	})

	t.Run("handler panic", func(t *testing.T) {
		out, err := reg.Invoke(context.Background(), "panics", nil)
		assert.Nil(t, out)
		require.ErrorIs(t, err, ErrExecution)
		assert.Contains(t, err.Error(), "panic: boom")
	})

	t.Run("result of the wrong type", func(t *testing.T) {
		require.NoError(t, reg.RegisterTool(Operation{
			Name:    "liar",
			Returns: TypeNumber,
			Handler: constHandler("five"),
		}))

		out, err := reg.Invoke(context.Background(), "liar", nil)
		assert.Nil(t, out)
		require.ErrorIs(t, err, ErrExecution)
		assert.Equal(t, "execution", Kind(err))
		assert.Contains(t, err.Error(), "expected number, got string")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := reg.Invoke(ctx, "sum", map[string]any{"a": 1.0, "b": 2.0})
		assert.ErrorIs(t, err, ErrExecution)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestInvokeResultTypes(t *testing.T) {
	tests := []struct {
		name    string
		returns ParamType
		result  any
		wantErr bool
	}{
		{"untyped accepts anything", "", struct{}{}, false},
		{"string", TypeString, "ok", false},
		{"number", TypeNumber, 1.5, false},
		{"integer", TypeInteger, 2.0, false},
		{"fractional integer", TypeInteger, 2.5, true},
		{"boolean", TypeBoolean, true, false},
		{"object", TypeObject, map[string]any{"ok": true}, false},
		{"array", TypeArray, []any{"a"}, false},
		{"nil for declared type", TypeString, nil, true},
		{"int is not a JSON number", TypeNumber, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			require.NoError(t, reg.RegisterTool(Operation{
				Name:    "op",
				Returns: tt.returns,
				Handler: constHandler(tt.result),
			}))

			out, err := reg.Invoke(context.Background(), "op", nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrExecution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.result, out)
		})
	}
}

func TestRead(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterResource(Resource{
		URI: "status://health",
		Handler: func(context.Context) (any, error) {
			return map[string]any{"ok": true}, nil
		},
	}))
	require.NoError(t, reg.RegisterResource(Resource{
		URI: "status://broken",
		Handler: func(context.Context) (any, error) {
			return nil, errors.New("probe failed")
		},
	}))

	out, err := reg.Read(context.Background(), "status://health")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, out)

	_, err = reg.Read(context.Background(), "status://missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reg.Read(context.Background(), "status://broken")
	assert.ErrorIs(t, err, ErrExecution)
}
