package registry

import (
	"errors"
	"testing"

	"github.com/fixkme/equeue/clock"
	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T, sim *clock.Sim, name string) *equeue.Queue {
	t.Helper()
	q, err := equeue.New(1024, &equeue.Options{Name: name, Clock: sim, Sema: sim.NewSema()})
	require.NoError(t, err)
	return q
}

func TestRegisterGetRemove(t *testing.T) {
	sim := clock.NewSim(0)
	r := New()
	q := newQueue(t, sim, "game.scene.1")
	defer q.Destroy()

	require.NoError(t, r.Register(q))
	err := r.Register(q)
	assert.True(t, errors.Is(err, errs.QueueExists))
	assert.True(t, errors.Is(r.Register(newQueue(t, sim, "")), errs.InvalidConfig))

	got, err := r.Get("game.scene.1")
	require.NoError(t, err)
	assert.Same(t, q, got)
	_, err = r.Get("game.scene")
	assert.True(t, errors.Is(err, errs.QueueNotFound))

	got, err = r.Remove("game.scene.1")
	require.NoError(t, err)
	assert.Same(t, q, got)
	assert.Equal(t, 0, r.Len())
	_, err = r.Remove("game.scene.1")
	assert.Equal(t, errs.ErrCode_QueueNotFound, int(errs.CodeOf(err)))
}

func TestPrefixOps(t *testing.T) {
	sim := clock.NewSim(0)
	r := New()
	for _, name := range []string{"scene.2", "scene.1", "login", "scene.10"} {
		require.NoError(t, r.Register(newQueue(t, sim, name)))
	}

	var names []string
	r.Walk("scene.", func(q *equeue.Queue) bool {
		names = append(names, q.Name())
		return true
	})
	assert.Equal(t, []string{"scene.1", "scene.10", "scene.2"}, names)

	n := 0
	r.Walk("", func(*equeue.Queue) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)

	stats := r.Stats("scene.")
	require.Len(t, stats, 3)
	assert.Equal(t, "scene.1", stats[0].Name)

	assert.Equal(t, 3, r.BreakPrefix("scene."))
	assert.Equal(t, 3, r.DestroyPrefix("scene."))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, r.DestroyPrefix("scene."))

	login, err := r.Get("login")
	require.NoError(t, err)
	assert.NotZero(t, login.Call(func() {}))
	r.DestroyPrefix("")
	assert.Zero(t, login.Call(func() {}))
}

func TestBreakPrefixStopsDispatch(t *testing.T) {
	sim := clock.NewSim(0)
	r := New()
	q := newQueue(t, sim, "worker.a")
	require.NoError(t, r.Register(q))
	defer r.DestroyPrefix("")

	n := 0
	q.CallEvery(10, func() { n++ })
	r.BreakPrefix("worker.")
	q.Dispatch(-1)
	assert.Equal(t, 0, n)
}

func TestChainByName(t *testing.T) {
	sim := clock.NewSim(0)
	r := New()
	root := newQueue(t, sim, "main")
	sub := newQueue(t, sim, "main.sub")
	require.NoError(t, r.Register(root))
	require.NoError(t, r.Register(sub))
	defer r.DestroyPrefix("")

	assert.True(t, errors.Is(r.Chain("main.sub", "main.sub"), errs.ChainSelf))
	assert.True(t, errors.Is(r.Chain("main.sub", "nope"), errs.QueueNotFound))
	assert.True(t, errors.Is(r.Chain("nope", "main"), errs.QueueNotFound))
	require.NoError(t, r.Chain("main.sub", "main"))

	n := 0
	sub.CallIn(5, func() { n++ })
	root.Dispatch(10)
	assert.Equal(t, 1, n)

	require.NoError(t, r.Chain("main.sub", ""))
	sub.Call(func() { n++ })
	root.Dispatch(0)
	assert.Equal(t, 1, n)
}
