package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/mailservice"
)

// Config configures the REST server.
type Config struct {
	Addr  string
	Token string
}

// NewRouter builds the gin engine serving svc over the REST contract.
func NewRouter(svc mailservice.Service, token string, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	h := &handlers{svc: svc, log: log}

	r.GET("/health", healthCheck)

	api := r.Group("/api")
	api.Use(BearerAuth(token))
	{
		api.GET("/recent", h.recent)
		api.POST("/generate-reply", h.generateReply)
		api.POST("/send", h.send)
		api.DELETE("/:id", h.trash)
	}

	return r
}

// Serve runs the router on cfg.Addr until ctx is cancelled.
func Serve(ctx context.Context, cfg Config, svc mailservice.Service, log *zap.Logger) error {
	if cfg.Token == "" {
		return errors.New("refusing to serve without a bearer token")
	}
	if log == nil {
		log = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(svc, cfg.Token, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", cfg.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}
