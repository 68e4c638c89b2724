package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assetdesk/backend/config"
	"github.com/assetdesk/backend/handlers"
	"github.com/assetdesk/backend/middleware"
	"github.com/assetdesk/backend/service"
	"github.com/assetdesk/backend/store"
	"github.com/assetdesk/backend/utils"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName, log)
	if err != nil {
		log.WithError(err).Fatal("mongodb")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("mongodb disconnect")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("could not ensure indexes; duplicate emails are only caught by the pre-insert check")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = store.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Fatal("redis")
		}
		defer rdb.Close()
	} else {
		log.Info("REDIS_ADDR not set; role lookups go straight to MongoDB")
	}
	roles := store.NewRoleCache(db, rdb, cfg.RoleCacheTTL, log)

	var images handlers.ImageStore
	if cfg.S3Enabled() {
		s3Service, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.WithError(err).Fatal("s3")
		}
		images = s3Service
	} else {
		log.Warn("AWS_S3_BUCKET not set; image uploads are disabled")
	}

	notifier := &handlers.Notifier{Logs: db, Log: log}
	if cfg.SMTPEnabled() {
		notifier.Mailer = service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		log.Info("SMTP_HOST not set; decision mails are disabled")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         log,
		Tokens:         service.NewTokenService(cfg.TokenSecret, cfg.TokenTTL),
		Users:          db,
		Roles:          roles,
		Assets:         db,
		Custom:         db,
		Requests:       db,
		Images:         images,
		Health:         db,
		Notifier:       notifier,
		Metrics:        middleware.NewMetrics(),
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Production:     cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	notifier.Wait()
}
