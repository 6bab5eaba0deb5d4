// Command bloomd serves Bloom filters kept in memory, Redis or a bitcask
// database over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkuptcov/bloomstore"
	"github.com/vkuptcov/bloomstore/redisclients"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	log := logrus.New()
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("bad log level")
	}
	log.SetLevel(level)

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.WithError(err).Fatal("store open failed")
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			log.WithError(closeErr).Error("store close failed")
		}
	}()

	filters := bloom.NewFilters(store)
	filters.SetLogger(bloom.LogrusLogger(log))
	filters.SetHooks(bloom.NewHooks(bloom.TraceHooks(log)...))
	filters.SetDefaults(bloom.Params{Capacity: cfg.Filter.Capacity, ErrorRate: cfg.Filter.ErrorRate})

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(filters, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Server.Addr, "backend": cfg.Store.Backend}).Info("bloomd started")
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.WithError(serveErr).Fatal("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Error("server shutdown failed")
	}
}

func openStore(cfg StoreConfig) (bloom.Store, func() error, error) {
	switch cfg.Backend {
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisClient := redisclients.NewGoRedisClientWithRetries(client, cfg.Redis.MaxRetries)
		return bloom.NewRedisStore(redisClient), client.Close, nil
	case BackendBitcask:
		store, err := bloom.OpenDiskStore(cfg.Bitcask.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return bloom.NewMemoryStore(), func() error { return nil }, nil
	}
}
