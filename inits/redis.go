package inits

import (
	"github.com/redis/rueidis"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/graceful_shutdown"
)

func NewRedisClient(ac *app_config.AppConfig) rueidis.Client {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{ac.RedisUrl},
		ShuffleInit: true,
	})
	if err != nil {
		panic(err)
	}
	graceful_shutdown.AddOutputShutdownFunc(client.Close)
	return client
}
