// Package server assembles the HTTP API: middleware chain, session and
// account routes, health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"vidtube/internal/config"
	"vidtube/internal/media"
	"vidtube/internal/metrics"
	"vidtube/internal/middleware"
	"vidtube/internal/modules/auth"
	"vidtube/internal/modules/user"
	"vidtube/internal/pkg/jwt"
	"vidtube/internal/pkg/password"
	"vidtube/internal/pkg/response"
)

// Store is satisfied by both the gorm repository and the mongo store.
type Store interface {
	auth.UserStore
	user.UserStore
}

type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Store    Store
	Uploader media.Uploader
	// Registry backs GET /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry
	// Ping reports store health for GET /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	tokens, err := jwt.New(jwt.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	})
	if err != nil {
		return nil, err
	}

	stager := media.NewStager(cfg.UploadTmpDir, cfg.MaxUploadBytes)
	authService := auth.NewService(d.Store, password.NewBcrypt(cfg.BcryptCost), tokens, d.Uploader, log)
	userService := user.NewService(d.Store, d.Uploader, log)

	authHandler := auth.NewHandler(authService, stager, auth.CookieOptions{
		Secure:     cfg.CookieSecure,
		SameSite:   auth.ParseSameSite(cfg.CookieSameSite),
		Path:       cfg.CookiePath,
		AccessTTL:  tokens.AccessTTL(),
		RefreshTTL: tokens.RefreshTTL(),
	})
	userHandler := user.NewHandler(userService, stager)

	r := gin.New()
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(log),
		middleware.RequestLogger(log),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSOrigins),
	)

	if disk, ok := d.Uploader.(*media.DiskUploader); ok {
		r.Static(disk.StaticBase(), disk.BaseDir())
	}

	r.GET("/healthz", healthz(d.Ping))
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Registry)))
	}

	v1 := r.Group("/api/v1")
	users := v1.Group("/users")
	authHandler.RegisterPublicRoutes(users)

	protected := users.Group("")
	protected.Use(middleware.JWTAuth(tokens, authService, log))
	authHandler.RegisterProtectedRoutes(protected)
	userHandler.RegisterProtectedRoutes(protected)

	return r, nil
}

func healthz(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Store is unavailable")
				return
			}
		}
		response.Success(c, http.StatusOK, "ok", gin.H{"status": "ok"})
	}
}

// Serve runs handler on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
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

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
