package queue

import (
	"github.com/avolkov/revtrack/pkg/config"
	"github.com/hibiken/asynq"
)

// MailQueue is the queue outbound email tasks land on. Kept separate from
// default so a mail backlog cannot starve other task types added later.
const MailQueue = "mail"

func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

func NewServer(cfg *config.RedisConfig, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			MailQueue: 6,
			"default": 3,
			"low":     1,
		},
	})
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	}
}
