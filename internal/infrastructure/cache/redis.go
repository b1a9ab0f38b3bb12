package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Josephquito/back-streaming/internal/config"
)

var RedisClient *redis.Client

func InitRedis(cfg *config.RedisConfig, log *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("error conectando a Redis: %v", err)
	}

	RedisClient = client
	log.Info("conexión a Redis establecida")
	return client
}
