package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipstream/video-transcoder/internal/config"
	"github.com/clipstream/video-transcoder/internal/encoder"
	"github.com/clipstream/video-transcoder/internal/pipeline"
	"github.com/clipstream/video-transcoder/internal/transcode"
	"github.com/clipstream/video-transcoder/internal/transcode/repository"
	"github.com/clipstream/video-transcoder/internal/worker"
	"github.com/clipstream/video-transcoder/pkg/db/aws"
	"github.com/clipstream/video-transcoder/pkg/db/postgres"
	"github.com/clipstream/video-transcoder/pkg/db/redis"
	"github.com/clipstream/video-transcoder/pkg/logger"
)

func main() {
	log.Println("Starting transcode worker")
	configFile := "config.yml"
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

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	appLogger.Infof("redis connected")
	defer redisClient.Close()

	var storage transcode.Storage
	if cfg.Storage.Backend == "local" {
		storage = repository.NewLocalStorage(cfg.Storage.LocalRoot)
	} else {
		s3Client, presignClient, awsErr := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if awsErr != nil {
			appLogger.Fatalf("could not connect to s3: %s", awsErr)
		}
		storage = repository.NewS3Storage(s3Client, presignClient, cfg.S3.Bucket)
	}

	tRepo := repository.NewTranscodeRepo(psqlDB)
	tQueueRepo := repository.NewQueueRedisRepo(redisClient)

	encodeTimeout := time.Duration(cfg.Worker.EncodeTimeout) * time.Second
	pl := pipeline.New(tRepo, storage, encoder.NewFFmpegEncoder(encodeTimeout), encoder.NewFFProber(), appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Infof("shutting down workers")
		cancel()
	}()

	w := worker.NewWorker(cfg, tQueueRepo, pl, appLogger)
	w.Start(ctx)
}
