package core

import (
	"context"
	"errors"
	"strings"

	rdb "github.com/fixkme/equeue/db/redis"
	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/framework/config"
	"github.com/fixkme/equeue/mlog"
	"github.com/redis/go-redis/v9"
)

var Redis *rdb.RedisImpl

func InitRedis(conf *config.RedisConfig) (err error) {
	if conf == nil {
		return errs.InvalidConfig.Print("redis config is nil")
	}
	addrs := strings.Split(conf.RedisAddr, ",")
	if len(addrs) < 1 || addrs[0] == "" {
		return errs.InvalidConfig.Printf("redis addr invalid (%s)", conf.RedisAddr)
	}
	var opt any
	switch conf.RedisMode {
	case rdb.RedisMode_Cluster:
		opt = &redis.ClusterOptions{
			Addrs:    addrs,
			Password: conf.RedisPassword,
		}
	case rdb.RedisMode_Sentinel:
		opt = &redis.FailoverOptions{
			MasterName:    conf.RedisMasterName,
			SentinelAddrs: addrs,
			Password:      conf.RedisPassword,
			DB:            conf.RedisDB,
		}
	default:
		opt = &redis.Options{
			Addr:     addrs[0],
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}
	}
	Redis, err = rdb.NewRedis(conf.RedisMode, opt)
	return
}

// SubscribeControl 订阅控制频道, 每条消息按一行命令交给handler执行
// 例如 PUBLISH equeue:ctl:<instance> "break scene."
func SubscribeControl(ctx context.Context, pattern string, handler func(line string) string) error {
	if Redis == nil {
		return errors.New("redis not initialized")
	}
	_, err := rdb.Pubsub(ctx, pattern, Redis, func(msg *redis.Message) error {
		reply := handler(msg.Payload)
		mlog.Infof("control %s: %q -> %q", msg.Channel, msg.Payload, strings.TrimSpace(reply))
		return nil
	})
	return err
}
