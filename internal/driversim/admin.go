package driversim

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/tabletctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// AdminRouter builds the admin HTTP surface for s.
func AdminRouter(s *Server, corsOrigins []string) *gin.Engine {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminRequestLogger(observability.Component("driversim.admin"), s.BundleID()))
	r.Use(observability.AdminMetricsMiddleware(s.BundleID()))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	started := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "driversim",
			"bundle_id": s.BundleID(),
			"uptime":    time.Since(started).String(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Model().Snapshot())
	})
	return r
}

// ServeAdmin runs the admin router on addr until ctx is done.
func ServeAdmin(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("driversim admin listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
