package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkwatch-be/config"
	"parkwatch-be/controllers"
	"parkwatch-be/events"
	"parkwatch-be/locker"
	"parkwatch-be/logging"
	"parkwatch-be/middlewares"
	"parkwatch-be/models"
	"parkwatch-be/repository"
	"parkwatch-be/repository/memory"
	mongorepo "parkwatch-be/repository/mongo"
	"parkwatch-be/routes"
	"parkwatch-be/services"
	"parkwatch-be/storage"
	authUtils "parkwatch-be/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.GoEnv)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func openRepository(ctx context.Context, cfg *config.Config, l *zap.Logger) (repository.Repository, func(), error) {
	if cfg.StoreDriver == "memory" {
		l.Warn("using in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}
	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := mongorepo.New(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	l.Info("MongoDB connection established", zap.String("database", cfg.MongoDatabase))
	return repo, func() { _ = client.Disconnect(context.Background()) }, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.ImageStorage, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return storage.NewLocalStorage(cfg.UploadDir, strings.TrimSuffix(cfg.Origin, "/")+"/uploads")
}

func loadStreets(path string, l *zap.Logger) []models.Street {
	streets, err := services.LoadStreets(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Warn("street catalog not found, overlay is empty", zap.String("path", path))
		} else {
			l.Error("failed to load street catalog", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	return streets
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeRepo()

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	var lk locker.Locker = locker.NewKeyMutex(64)
	var publisher events.Publisher = events.Noop{}
	if rdb != nil {
		defer rdb.Close()
		lk = locker.NewRedisLocker(rdb, "parkwatch:lock", cfg.PlateLockTTL)
		publisher = events.NewRedisPublisher(rdb, cfg.StatusChannel)
		l.Info("Redis connection established", zap.String("address", cfg.RedisAddress))
	}

	imgs, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open image storage: %w", err)
	}
	jwt, err := authUtils.NewJWTManager(cfg.JWTSecret, cfg.JWTDuration)
	if err != nil {
		return err
	}

	// configured words extend the built-in list
	words := append(slices.Clone(services.DefaultProfanity), cfg.ProfanityWords...)

	media := services.NewMediaService(imgs, l)
	plates := services.NewPlateService(repo, lk, l)
	geo := services.NewGeoService(repo, l)
	h := &controllers.Handlers{
		Reports:       services.NewReportService(repo, plates, media, l),
		Plates:        plates,
		Moderation:    services.NewModerationService(repo, plates, geo, media, publisher, l),
		Comments:      services.NewCommentService(repo, services.NewProfanityFilter(words), l),
		Geo:           geo,
		Streets:       services.NewStreetService(loadStreets(cfg.StreetsFile, l), geo, l),
		Users:         services.NewUserService(repo, jwt, media, l),
		Announcements: services.NewAnnouncementService(repo, media, l),
		SecureCookies: cfg.IsProduction(),
		TokenTTL:      jwt.Duration(),
		Logger:        l,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := routes.Options{
		CORSOrigins: cfg.CORSOrigins,
		Auth:        middlewares.AuthMiddleware(jwt, repo, l),
		Limit:       middlewares.ReportRateLimiter(rdb, cfg.ReportLimitKey, cfg.ReportLimit, l),
		Logger:      l,
	}
	if cfg.StorageDriver != "s3" {
		opts.UploadDir = cfg.UploadDir
	}
	return serve(ctx, routes.Setup(h, opts), cfg.Port, l)
}

func serve(ctx context.Context, handler http.Handler, port int, l *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		l.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
