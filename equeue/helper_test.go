package equeue

import (
	"testing"

	"github.com/fixkme/equeue/clock"
	"github.com/stretchr/testify/require"
)

func newSimQueue(t *testing.T, size int, start uint32) (*Queue, *clock.Sim) {
	t.Helper()
	sim := clock.NewSim(start)
	q, err := New(size, &Options{Name: t.Name(), Clock: sim, Sema: sim.NewSema()})
	require.NoError(t, err)
	t.Cleanup(q.Destroy)
	return q, sim
}

func counter(n *int) func() {
	return func() { *n++ }
}

// postWithDtor 投递一个带析构函数的池事件
func postWithDtor(t *testing.T, q *Queue, delay, period int, cb func(), dtor func()) int {
	t.Helper()
	e := q.Alloc(8)
	require.NotNil(t, e)
	e.SetDelay(delay)
	e.SetPeriod(period)
	e.SetDestructor(func([]byte) { dtor() })
	id := q.Post(e, func([]byte) { cb() })
	require.NotZero(t, id)
	return id
}

func newSimOptions() *Options {
	sim := clock.NewSim(0)
	return &Options{Clock: sim, Sema: sim.NewSema()}
}
