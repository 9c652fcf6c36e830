package task

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/nodeid"
)

func constFunc(v any) Func {
	return func(context.Context, []any, map[string]any) (any, error) { return v, nil }
}

func TestNew(t *testing.T) {
	ids := nodeid.NewRandom()
	dep := New(ids, constFunc(1), WithName("dep"))
	tk := New(ids, constFunc(2),
		WithName("sum"),
		WithDesc("adds things"),
		WithKwargs(map[string]any{"start": 1}),
		WithDependsOn(Named("dep"), On(dep)),
		WithFuncName("sum"),
	)

	assert.NotEmpty(t, tk.TID)
	assert.NotEqual(t, dep.TID, tk.TID)
	assert.Equal(t, "sum", tk.Name)
	assert.Equal(t, "adds things", tk.Desc)
	assert.Equal(t, "sum", tk.FuncName)
	assert.Equal(t, NotStarted, tk.Status())
	assert.Empty(t, tk.Related())
	assert.Empty(t, tk.Dependencies())
	assert.Len(t, tk.DependsOn, 2)
	_, ok := tk.Result()
	assert.False(t, ok)
}

func TestNew_StableIDs(t *testing.T) {
	ids := nodeid.NewStable()
	a := New(ids, nil, WithName("extract"))
	b := New(ids, nil, WithName("extract"))
	assert.Equal(t, a.TID, b.TID)
	assert.Equal(t, nodeid.FromName("extract"), a.TID)

	forced := New(ids, nil, WithName("extract"), WithTID("fixed"))
	assert.Equal(t, "fixed", forced.TID)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Not Started", NotStarted.String())
	assert.Equal(t, "Queued", Queued.String())
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Completed", Completed.String())
	assert.Equal(t, "Failed", Failed.String())
	assert.True(t, Failed.Terminal())
	assert.False(t, Queued.Terminal())
}

func TestRun(t *testing.T) {
	ids := nodeid.NewRandom()

	t.Run("stores the result on success", func(t *testing.T) {
		tk := New(ids, func(_ context.Context, in []any, kw map[string]any) (any, error) {
			return len(in) + kw["extra"].(int), nil
		}, WithKwargs(map[string]any{"extra": 10}))

		require.NoError(t, tk.Run(context.Background(), []any{1, 2}))
		v, ok := tk.Result()
		require.True(t, ok)
		assert.Equal(t, 12, v)
		assert.Equal(t, []any{12}, Result(tk))
		assert.NoError(t, tk.Err())
	})

	t.Run("returns and logs function errors", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
		boom := errors.New("boom")
		tk := New(ids, func(context.Context, []any, map[string]any) (any, error) {
			return nil, boom
		}, WithName("exploder"))

		err := tk.Run(ctx, nil)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, tk.Err(), boom)
		_, ok := tk.Result()
		assert.False(t, ok)
		assert.Empty(t, Result(tk))
		assert.Contains(t, buf.String(), "exploder")
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("recovers panics", func(t *testing.T) {
		tk := New(ids, func(context.Context, []any, map[string]any) (any, error) {
			panic("kaboom")
		})

		var err error
		assert.NotPanics(t, func() { err = tk.Run(context.Background(), nil) })
		assert.ErrorContains(t, err, "kaboom")
		_, ok := tk.Result()
		assert.False(t, ok)
	})

	t.Run("nil function", func(t *testing.T) {
		tk := New(ids, nil)
		assert.ErrorIs(t, tk.Run(context.Background(), nil), ErrNoFunc)
	})

	t.Run("nil result contributes nothing", func(t *testing.T) {
		tk := New(ids, constFunc(nil))
		require.NoError(t, tk.Run(context.Background(), nil))
		_, ok := tk.Result()
		assert.True(t, ok)
		assert.Empty(t, Result(tk))
	})

	t.Run("a rerun clears the previous result", func(t *testing.T) {
		fail := false
		tk := New(ids, func(context.Context, []any, map[string]any) (any, error) {
			if fail {
				return nil, errors.New("second run")
			}
			return "first", nil
		})
		require.NoError(t, tk.Run(context.Background(), nil))
		fail = true
		require.Error(t, tk.Run(context.Background(), nil))
		assert.Empty(t, Result(tk))
	})
}

func TestAddRelated_Dedups(t *testing.T) {
	tk := New(nodeid.NewRandom(), nil)
	tk.AddRelated("a", "b", "a")
	tk.AddRelated("b", "c")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, tk.Related())
}

func TestSetDependencies_DoesNotTouchDependsOn(t *testing.T) {
	ids := nodeid.NewRandom()
	up := New(ids, nil, WithName("up"))
	tk := New(ids, nil, WithDependsOn(Named("up")))

	tk.SetDependencies([]*Task{up})
	assert.Equal(t, []Ref{Named("up")}, tk.DependsOn)
	assert.Equal(t, []*Task{up}, tk.Dependencies())
}

func TestConcurrentStatusAccess(t *testing.T) {
	tk := New(nodeid.NewRandom(), constFunc(1))
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tk.UpdateStatus(Status(i % 5))
		}()
		go func() {
			defer wg.Done()
			_ = tk.Status().String()
		}()
	}
	wg.Wait()
}

func TestCreate(t *testing.T) {
	ids := nodeid.NewRandom()
	existing := New(ids, constFunc(1))

	t.Run("task passes through", func(t *testing.T) {
		got, err := Create(existing, ids)
		require.NoError(t, err)
		assert.Same(t, existing, got)
	})

	t.Run("spec becomes a task", func(t *testing.T) {
		got, err := Create(Spec{
			Func:           constFunc(1),
			Kwargs:         map[string]any{"a": 1},
			DependsOn:      []Ref{On(existing)},
			Name:           "from-spec",
			Desc:           "desc",
			SkipValidation: true,
			FuncName:       "const",
		}, ids)
		require.NoError(t, err)
		assert.Equal(t, "from-spec", got.Name)
		assert.Equal(t, "desc", got.Desc)
		assert.Equal(t, "const", got.FuncName)
		assert.True(t, got.SkipValidation)
		assert.Equal(t, map[string]any{"a": 1}, got.Kwargs)
		assert.Equal(t, []Ref{On(existing)}, got.DependsOn)
	})

	t.Run("spec pointer", func(t *testing.T) {
		got, err := Create(&Spec{Name: "p"}, ids)
		require.NoError(t, err)
		assert.Equal(t, "p", got.Name)
		assert.NotNil(t, got.Kwargs)
	})

	t.Run("unsupported values", func(t *testing.T) {
		for _, step := range []any{42, "task", nil, (*Task)(nil), (*Spec)(nil)} {
			_, err := Create(step, ids)
			assert.ErrorIs(t, err, ErrInvalidStep, "step %#v", step)
		}
	})
}

func TestRef_String(t *testing.T) {
	ids := nodeid.NewRandom()
	tk := New(ids, nil)
	assert.Equal(t, "name:x", Named("x").String())
	assert.Equal(t, "task:"+tk.TID, On(tk).String())
	assert.Equal(t, "task:<nil>", On(nil).String())
}
