package redis

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisUnreachable(t *testing.T) {
	PingTimeout = 500 * time.Millisecond
	db, err := NewRedis(RedisMode_Single, &redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	require.Error(t, err)
	assert.Nil(t, db)
}

func TestGetCmdable(t *testing.T) {
	db := &RedisImpl{}
	assert.Nil(t, db.GetCmdable())
	db.client = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer db.Stop()
	assert.Same(t, db.client, db.GetCmdable())
	assert.Nil(t, db.ClusterClient())
}
