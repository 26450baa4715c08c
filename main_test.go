package main

import (
	"testing"

	"github.com/fixkme/equeue/clock"
	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/framework/config"
	"github.com/fixkme/equeue/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControl(t *testing.T) {
	sim := clock.NewSim(0)
	reg := registry.New()
	defer reg.DestroyPrefix("")
	for _, name := range []string{"a", "b.1", "b.2"} {
		q, err := equeue.New(1024, &equeue.Options{Name: name, Clock: sim, Sema: sim.NewSema()})
		require.NoError(t, err)
		require.NoError(t, reg.Register(q))
	}
	ctl := control(reg)

	assert.Equal(t, "OK 2", ctl("break b."))
	assert.Equal(t, "OK", ctl("chain b.1 a"))
	assert.Equal(t, "OK", ctl("chain b.1"))
	assert.Contains(t, ctl("chain b.1 zzz"), "QUEUE_NOT_FOUND")
	assert.Equal(t, "ERR usage", ctl("break"))
	assert.Equal(t, "ERR unknown command drop", ctl("drop a"))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("EQUEUE_INSTANCE_ID", "node-7")
	t.Setenv("EQUEUE_REDIS_ADDR", "10.0.0.1:6379")
	t.Setenv("EQUEUE_LOG_LEVEL", "5")
	conf := &config.AppConfig{}
	require.NoError(t, loadConfigFromEnv(conf))
	assert.Equal(t, "node-7", conf.InstanceId)
	assert.Equal(t, "10.0.0.1:6379", conf.RedisAddr)
	assert.Equal(t, 5, conf.LogLevel)

	t.Setenv("EQUEUE_LOG_LEVEL", "trace")
	require.NoError(t, loadConfigFromEnv(conf))
	assert.Equal(t, 6, conf.LogLevel)

	t.Setenv("EQUEUE_LOG_LEVEL", "verbose")
	assert.Error(t, loadConfigFromEnv(conf))
}
