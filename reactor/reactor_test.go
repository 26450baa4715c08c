package reactor

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/fixkme/equeue/clock"
	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/registry"
	"github.com/panjf2000/gnet/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimReactor(t *testing.T) (*Reactor, *clock.Sim) {
	t.Helper()
	sim := clock.NewSim(0)
	q, err := equeue.New(4096, &equeue.Options{Name: "sim", Clock: sim, Sema: sim.NewSema()})
	require.NoError(t, err)
	t.Cleanup(q.Destroy)
	return New(q, &Options{MaxTick: 50 * time.Millisecond}), sim
}

func TestTickDelay(t *testing.T) {
	r, sim := newSimReactor(t)
	q := r.Queue()
	assert.Equal(t, 50*time.Millisecond, r.delay())

	n := 0
	q.CallIn(20, func() { n++ })
	assert.Equal(t, 20*time.Millisecond, r.delay())
	sim.Advance(5)
	delay, action := r.OnTick()
	assert.Equal(t, gnet.None, action)
	assert.Equal(t, 15*time.Millisecond, delay)
	assert.Equal(t, 0, n)

	sim.Advance(15)
	delay, _ = r.OnTick()
	assert.Equal(t, 1, n)
	assert.Equal(t, 50*time.Millisecond, delay)

	q.CallIn(500, func() {})
	assert.Equal(t, 50*time.Millisecond, r.delay())
	q.CallEvery(0, func() {})
	delay, _ = r.OnTick()
	assert.Equal(t, time.Millisecond, delay)
}

func TestExec(t *testing.T) {
	r, sim := newSimReactor(t)
	reply := func(line string) string {
		out, quit := r.exec(line, nil)
		assert.False(t, quit)
		return out
	}

	assert.Equal(t, "pong\n", reply("PING"))
	assert.Equal(t, "", reply("   "))
	sim.Advance(42)
	assert.Equal(t, "42\n", reply("tick"))
	assert.True(t, strings.HasPrefix(reply("foo"), "ERR unknown command"))
	assert.True(t, strings.HasPrefix(reply("after 10"), "ERR usage"))
	assert.Equal(t, "ERR invalid ms\n", reply("after -1 x"))

	var id int
	_, err := fmt.Sscanf(reply("after 10 hello"), "OK %d\n", &id)
	require.NoError(t, err)
	assert.Equal(t, "10\n", reply(fmt.Sprintf("left %d", id)))
	assert.Equal(t, "OK\n", reply(fmt.Sprintf("cancel %d", id)))
	assert.Equal(t, "ERR not pending\n", reply(fmt.Sprintf("cancel %d", id)))
	assert.Equal(t, "ERR not found\n", reply(fmt.Sprintf("left %d", id)))
	assert.Equal(t, "ERR invalid id\n", reply("left x"))

	assert.Equal(t, "sim pending=0 pool=0/4096 handles=0 posted=1 fired=0 cancelled=1\nEND\n", reply("stats"))
	assert.Equal(t, "OK 1\n", reply("break"))

	out, quit := r.exec("quit", nil)
	assert.True(t, quit)
	assert.Equal(t, "bye\n", out)
}

func TestExecWithRegistry(t *testing.T) {
	sim := clock.NewSim(0)
	reg := registry.New()
	defer reg.DestroyPrefix("")
	for _, name := range []string{"a.1", "a.2", "b"} {
		q, err := equeue.New(1024, &equeue.Options{Name: name, Clock: sim, Sema: sim.NewSema()})
		require.NoError(t, err)
		require.NoError(t, reg.Register(q))
	}
	q, _ := reg.Get("b")
	r := New(q, &Options{Registry: reg})

	out, _ := r.exec("break a.", nil)
	assert.Equal(t, "OK 2\n", out)
	out, _ = r.exec("stats a.", nil)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "a.1 "))
	assert.True(t, strings.HasPrefix(lines[1], "a.2 "))
	assert.Equal(t, "END", lines[2])
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestServer(t *testing.T) {
	q, err := equeue.New(64<<10, &equeue.Options{Name: "net"})
	require.NoError(t, err)
	defer q.Destroy()

	addr := freeAddr(t)
	booted := make(chan struct{})
	r := New(q, &Options{
		Addr:    "tcp://" + addr,
		MaxTick: 10 * time.Millisecond,
		OnBoot:  func(gnet.Engine) { close(booted) },
	})
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run() }()
	select {
	case <-booted:
	case err := <-errCh:
		t.Fatalf("reactor run: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("reactor did not boot")
	}

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	rd := bufio.NewReader(conn)
	readLine := func() string {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimSuffix(line, "\n")
	}

	fmt.Fprint(conn, "ping\n")
	assert.Equal(t, "pong", readLine())

	// 分两次写入同一行
	fmt.Fprint(conn, "after 20 hel")
	time.Sleep(5 * time.Millisecond)
	fmt.Fprint(conn, "lo world\n")
	assert.True(t, strings.HasPrefix(readLine(), "OK "))
	assert.Equal(t, "hello world", readLine())

	fmt.Fprint(conn, "stats\n")
	assert.True(t, strings.HasPrefix(readLine(), "net pending=0 "))
	assert.Equal(t, "END", readLine())

	fmt.Fprint(conn, "quit\n")
	assert.Equal(t, "bye", readLine())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("reactor did not stop")
	}
}
