package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smis/sso"
	"github.com/smis/sso/authorization"
	"github.com/smis/sso/generates"
	"github.com/smis/sso/manage"
	"github.com/smis/sso/metrics"
	"github.com/smis/sso/migrate"
	"github.com/smis/sso/registry"
	"github.com/smis/sso/seed"
	"github.com/smis/sso/server"
	"github.com/smis/sso/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("gateway: loading .env: %v", err)
	}

	// MIGRATE_ON_START=1 MIGRATE_DSN=postgres://... (see migrate.RunFromEnv)
	if err := migrate.RunFromEnv(); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	if err := seed.RunFromEnv(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

	cfg := server.GetConfig()
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn := cfg.DatabaseDSN()
	if dsn == "" {
		log.Fatal(server.ErrDatabaseDSNNotSet)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refreshStore, closeStore, err := openRefreshStore(ctx, cfg)
	if err != nil {
		log.Fatalf("refresh store: %v", err)
	}
	defer closeStore()

	apps := store.NewApplicationStore(db)
	var regOpts []registry.Option
	if size := *cfg.Registry.CacheSize; size > 0 {
		regOpts = append(regOpts, registry.WithCache(size, cfg.Registry.CacheTTL))
	}
	reg := registry.New(apps, regOpts...)
	users := store.NewUserStore(db)

	gen := generates.NewJWTAccessGenerate("", []byte(cfg.JWTSecret()), jwt.SigningMethodHS256)
	gen.ExpiresIn = cfg.Auth.AccessTTL

	manager := manage.NewManager()
	manager.SetConfig(&manage.Config{RefreshTokenExp: cfg.Auth.RefreshTTL})
	manager.MapApplicationRegistry(reg)
	manager.MapCredentialVerifier(users)
	manager.MapUserFinder(users)
	manager.MapResolver(authorization.NewResolver(store.NewDirectoryStore(db)))
	manager.MapAccessGenerate(gen)
	manager.MapRefreshTokenStorage(refreshStore)

	metrics.Init()

	srv := server.NewServer(server.NewConfigFromApp(cfg), manager)
	srv.SetApplicationAdmin(apps, reg)
	srv.SetHealthCheck(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.NewGinEngine(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("gateway: listening on %s (env=%s, refresh store=%s)", cfg.HTTP.Addr, cfg.Env, cfg.RefreshStore.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("gateway: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("gateway: shutdown: %v", err)
	}
}

// openRefreshStore builds the configured refresh token backend and its cleanup.
func openRefreshStore(ctx context.Context, cfg *server.AppConfig) (sso.RefreshTokenStore, func(), error) {
	ttl := store.WithRefreshTTL(cfg.Auth.RefreshTTL)
	rs := cfg.RefreshStore
	switch rs.Driver {
	case "memory":
		s := store.NewMemoryRefreshTokenStore(ttl)
		s.StartSweeper(ctx, rs.SweepInterval)
		return s, func() {}, nil
	case "buntdb":
		s, err := store.NewBuntRefreshTokenStore(rs.Path, ttl)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("refresh store: close: %v", err)
			}
		}, nil
	case "valkey":
		s, err := store.NewValkeyRefreshTokenStore(rs.Addr, rs.Prefix, ttl)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown refresh store driver %q", rs.Driver)
	}
}
