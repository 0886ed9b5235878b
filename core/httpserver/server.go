// Package httpserver exposes the webhook endpoint. Replies ride the
// HTTP response body of the webhook delivery itself; the server never
// calls the Bot API to answer an update.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/m3rciful/stickerbot/core/bot"
	"github.com/m3rciful/stickerbot/core/buildinfo"
	"github.com/m3rciful/stickerbot/core/config"
	"github.com/m3rciful/stickerbot/core/logger"
)

const shutdownGrace = 10 * time.Second

// Server owns the gin engine and the http.Server lifecycle.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	bot    *bot.Bot
}

// New assembles the routes and middleware chain. Order matters: auth
// runs before the body logger so rejected probes are not logged at
// full body length, and metrics wrap everything.
func New(cfg *config.Config, b *bot.Bot) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), metrics())

	s := &Server{
		engine: engine,
		bot:    b,
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Listen, cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhook := engine.Group("/", secretAuth(cfg.Telegram.SecretToken), bodyLog())
	webhook.POST("", s.handleWebhook)

	return s
}

// Run serves until ctx is cancelled, then drains with a grace period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.HTTP.Info("listening",
			slog.String("event", "http.listen"),
			slog.String("listen", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.HTTP.Info("stopped", slog.String("event", "http.stop"))
	return <-errCh
}

func (s *Server) handleWebhook(c *gin.Context) {
	var u tele.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		logger.HTTP.Warn("malformed update",
			slog.String("event", "http.decode"),
			slog.String("err", err.Error()),
		)
		c.Status(http.StatusBadRequest)
		return
	}

	reply := s.bot.Handle(c.Request.Context(), &u)
	if reply == nil {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}
