package httpserver

import (
	"bytes"
	"crypto/subtle"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"

	"github.com/m3rciful/stickerbot/core/logger"
)

// secretTokenHeader is attached by Telegram to every webhook delivery
// when the webhook was registered with a secret_token.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const bodyLogLimit = 2048

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight)
}

// secretAuth rejects requests whose secret token header does not match
// the configured webhook secret. Comparison is constant time; length is
// checked first since ConstantTimeCompare requires equal lengths.
func secretAuth(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(secretTokenHeader))
		if len(got) != len(expected) || subtle.ConstantTimeCompare(expected, got) != 1 {
			logger.HTTP.Warn("webhook auth rejected",
				slog.String("event", "http.auth"),
				slog.String("status", "denied"),
				slog.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// metrics instruments requests with bounded labels: the registered
// route, never the raw URL, keeps cardinality fixed.
func metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// bodyLog records request and response bodies on one line each, with
// newlines flattened so multi-line payloads stay greppable.
func bodyLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqBody []byte
		if c.Request.Body != nil {
			reqBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw

		start := time.Now()
		c.Next()

		logger.HTTP.Info("webhook exchange",
			slog.String("event", "http.exchange"),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("http_code", c.Writer.Status()),
			slog.String("payload", flatten(reqBody)),
			slog.String("response", flatten(cw.buf.Bytes())),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}

func flatten(body []byte) string {
	s := strings.ReplaceAll(string(body), "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return logger.SanitizeLimit(s, bodyLogLimit)
}
