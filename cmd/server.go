package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/internal/server"
	"github.com/amankumarsingh77/ffserve/pkg/db/aws"
	"github.com/amankumarsingh77/ffserve/pkg/db/redis"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	goredis "github.com/go-redis/redis/v8"
)

func main() {
	log.Println("Starting server")
	configFile := os.Getenv("CONFIG_PATH")
	if configFile == "" {
		configFile = config.DefaultConfigPath
	}
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewRedisClient(cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to redis: %v", err)
		}
		defer redisClient.Close()
		appLogger.Infof("redis connected, publishing job events to %s", cfg.Redis.EventsChannel)
	}

	var s3Client *s3.Client
	if cfg.S3.Enabled() {
		s3Client, err = aws.NewS3Client(ctx, cfg.S3)
		if err != nil {
			appLogger.Fatalf("could not create s3 client: %v", err)
		}
		appLogger.Infof("s3 client ready for region %s", cfg.S3.Region)
	}

	s := server.NewServer(cfg, redisClient, s3Client, appLogger)
	if err = s.Run(ctx); err != nil {
		appLogger.Fatalf("server stopped: %v", err)
	}
	appLogger.Info("server exited")
}
