package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fixkme/equeue/mlog"
	"github.com/redis/go-redis/v9"
)

const (
	RedisMode_Single   = "single"
	RedisMode_Sentinel = "sentinel"
	RedisMode_Cluster  = "cluster"
)

// 建立连接时ping的超时
var PingTimeout = 3 * time.Second

type RedisImpl struct {
	client  *redis.Client
	cluster *redis.ClusterClient
}

func NewRedis(mode string, opts any) (*RedisImpl, error) {
	db := &RedisImpl{}
	switch mode {
	case RedisMode_Cluster:
		db.cluster = redis.NewClusterClient(opts.(*redis.ClusterOptions))
	case RedisMode_Sentinel:
		db.client = redis.NewFailoverClient(opts.(*redis.FailoverOptions))
	default: // 默认single模式
		db.client = redis.NewClient(opts.(*redis.Options))
	}

	ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
	defer cancel()
	if err := db.GetCmdable().Ping(ctx).Err(); err != nil {
		db.Stop()
		return nil, err
	}
	return db, nil
}

func (db *RedisImpl) Client() *redis.Client {
	return db.client
}

func (db *RedisImpl) ClusterClient() *redis.ClusterClient {
	return db.cluster
}

func (db *RedisImpl) Stop() {
	if db.client != nil {
		db.client.Close()
	}
	if db.cluster != nil {
		db.cluster.Close()
	}
}

func (db *RedisImpl) GetCmdable() redis.Cmdable {
	if db.client != nil {
		return db.client
	}
	if db.cluster != nil {
		return db.cluster
	}
	return nil
}

// PubsubCB 收到redis订阅消息的回调函数
type PubsubCB func(message *redis.Message) error

// Pubsub 订阅指定格式的channel, 在新的协程里不断接收消息并执行回调
// 接收出错时短暂休眠后继续, ctx结束时协程退出并关闭订阅
func Pubsub(ctx context.Context, pattern string, db *RedisImpl, cb PubsubCB) (*redis.PubSub, error) {
	pubsub, err := subscribe(ctx, pattern, db)
	if err != nil {
		return nil, err
	}

	retryDur := 5 * time.Second
	go func() {
		defer func() {
			if r := recover(); r != nil {
				mlog.Errorf("redis Pubsub routinue recover error %v", r)
			}
			pubsub.Close()
			mlog.Info("redis pubsub routinue quited")
		}()
		for {
			received, err := pubsub.Receive(ctx)
			if err != nil {
				if ctx.Err() != nil {
					mlog.Infof("redis pubsub stopped on error %s, quit now", err)
					return
				}
				mlog.Infof("redis pubsub error %s, retry after %s", err, retryDur)
				select {
				case <-ctx.Done():
					return
				case <-time.After(retryDur):
				}
				continue
			}
			switch v := received.(type) {
			case *redis.Message:
				if err := cb(v); err != nil {
					mlog.Infof("pubsub %s callback error %s", v.Channel, err)
				}
			case *redis.Subscription:
				mlog.Infof("pubsub %s %s", v.Kind, v.Channel)
			case *redis.Pong:
				mlog.Debug("pubsub recv Pong")
			default:
				mlog.Infof("pubsub recv default %#v", v)
			}
		}
	}()
	return pubsub, nil
}

// 订阅redis消息
func subscribe(ctx context.Context, channel string, db *RedisImpl) (*redis.PubSub, error) {
	var pubsub *redis.PubSub
	if db.client != nil {
		pubsub = db.client.PSubscribe(ctx, channel)
	} else if db.cluster != nil {
		pubsub = db.cluster.PSubscribe(ctx, channel)
	}
	if pubsub == nil {
		return nil, fmt.Errorf("redis subscribe %s failed, nil pubsub", channel)
	}
	return pubsub, nil
}
