package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m3rciful/stickerbot/core/bot"
	"github.com/m3rciful/stickerbot/core/config"
	"github.com/m3rciful/stickerbot/core/e621"
	"github.com/m3rciful/stickerbot/core/session"
	"github.com/m3rciful/stickerbot/core/telegramapi"
)

var testSecret = strings.Repeat("s", 44)

type stubStore struct{}

func (stubStore) Get(_ context.Context, userID int64) (*session.Session, error) {
	return &session.Session{UserID: userID}, nil
}
func (stubStore) SetPending(context.Context, int64, int, string) error { return nil }
func (stubStore) SetAgeVerified(context.Context, int64) (bool, error)  { return true, nil }
func (stubStore) SetAPIKey(context.Context, int64, string) error       { return nil }

type stubMedia struct{}

func (stubMedia) SearchPosts(context.Context, string, int, int) (*e621.Posts, error) {
	return &e621.Posts{}, nil
}
func (stubMedia) CreatePost(context.Context, e621.UploadRequest, e621.Credential) (int, error) {
	return 1, nil
}
func (stubMedia) UpdatePost(context.Context, int, string, e621.Credential) error { return nil }
func (stubMedia) CreateUser(context.Context, string, string) (string, error)     { return "k", nil }

type stubFiles struct{}

func (stubFiles) ResolveFile(_ context.Context, fileID string) (*telegramapi.FileInfo, error) {
	return &telegramapi.FileInfo{FileID: fileID, FilePath: "stickers/x.webp"}, nil
}
func (stubFiles) FileURL(p string) string { return "https://files.test/" + p }

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Telegram.SecretToken = testSecret
	cfg.Telegram.BotName = "StickerManBot"
	cfg.Operator.ChatID = 777
	cfg.Server.Listen = "127.0.0.1"
	cfg.Server.Port = 0

	b := bot.New(cfg, stubStore{}, stubMedia{}, stubFiles{})
	return New(cfg, b)
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	s := testServer(t)

	for _, header := range []string{"", "wrong", strings.Repeat("x", 44)} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"update_id":1}`))
		if header != "" {
			req.Header.Set(secretTokenHeader, header)
		}
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestWebhookRepliesInResponseBody(t *testing.T) {
	s := testServer(t)

	body := `{"update_id":1,"message":{"message_id":2,"from":{"id":42},"chat":{"id":42},"text":"/start"}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(secretTokenHeader, testSecret)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := rec.Body.String()
	if !strings.Contains(got, `"method":"sendMessage"`) {
		t.Fatalf("expected sendMessage reply body, got %s", got)
	}
	if !strings.Contains(got, `"chat_id":42`) {
		t.Fatalf("reply must target the sender chat, got %s", got)
	}
}

func TestWebhookAcknowledgesUnsupportedUpdates(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"update_id":7}`))
	req.Header.Set(secretTokenHeader, testSecret)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %s", rec.Body.String())
	}
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	req.Header.Set(secretTokenHeader, testSecret)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health body %s", rec.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	s := testServer(t)

	// Drive one request through the instrumented chain so the counter
	// has at least one sample to expose.
	warm := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.engine.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatal("request counter not exposed")
	}
}
