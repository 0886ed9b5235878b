package e621

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m3rciful/stickerbot/core/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.E621Config{
		BaseURL:   srv.URL,
		UserAgent: "stickerbot/test",
		Login:     "service",
		APIKey:    "service-key",
	}, srv.Client())
}

func TestSearchPosts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("tags") != "fox*" || q.Get("page") != "2" || q.Get("limit") != "50" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua != "stickerbot/test" {
			t.Fatalf("unexpected user agent %q", ua)
		}
		login, key, ok := r.BasicAuth()
		if !ok || login != "service" || key != "service-key" {
			t.Fatalf("service credential not sent: %q/%q", login, key)
		}
		_ = json.NewEncoder(w).Encode(Posts{Posts: []Post{{ID: 7}}})
	})

	out, err := c.SearchPosts(context.Background(), "fox*", 2, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(out.Posts) != 1 || out.Posts[0].ID != 7 {
		t.Fatalf("unexpected posts %+v", out.Posts)
	}
}

func TestCreatePost(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/uploads.json" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		login, key, _ := r.BasicAuth()
		if login != "tg_42" || key != "user-key" {
			t.Fatalf("upload must use the user credential, got %q/%q", login, key)
		}
		var env uploadEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Upload.Rating != "q" || env.Upload.DirectURL == "" {
			t.Fatalf("unexpected upload %+v", env.Upload)
		}
		_ = json.NewEncoder(w).Encode(uploadResponse{Success: true, PostID: 101})
	})

	id, err := c.CreatePost(context.Background(), UploadRequest{
		DirectURL: "https://files.test/sticker.webp",
		TagString: "copyright:coolset",
		Source:    "uniq\nfile\nlink",
		Rating:    "q",
	}, Credential{Login: "tg_42", APIKey: "user-key"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 101 {
		t.Fatalf("post id = %d, want 101", id)
	}
}

func TestUpdatePost(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/posts/55.json" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var env updateEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Post.TagStringDiff != "cute fox" {
			t.Fatalf("unexpected diff %q", env.Post.TagStringDiff)
		}
		w.WriteHeader(http.StatusOK)
	})

	err := c.UpdatePost(context.Background(), 55, "cute fox", Credential{Login: "tg_42", APIKey: "k"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users.json" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var env createUserEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.User.Name != "tg_42" || env.User.Password != env.User.PasswordConfirmation {
			t.Fatalf("unexpected user payload %+v", env.User)
		}
		_ = json.NewEncoder(w).Encode(createUserResponse{ID: 9, Name: env.User.Name, APIKey: "issued-key"})
	})

	key, err := c.CreateUser(context.Background(), "tg_42", "secret")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if key != "issued-key" {
		t.Fatalf("api key = %q", key)
	}
}

func TestAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"access denied"}`))
	})

	_, err := c.SearchPosts(context.Background(), "fox", 1, 50)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if apiErr.Body == "" {
		t.Fatal("error must carry a body snippet")
	}
}

func TestStickerFileID(t *testing.T) {
	p := Post{Sources: []string{"uniq", "file1", "link"}}
	id, ok := p.StickerFileID()
	if !ok || id != "file1" {
		t.Fatalf("got (%q, %v)", id, ok)
	}
	if _, ok := (&Post{Sources: []string{"only"}}).StickerFileID(); ok {
		t.Fatal("single-source post must not yield a file id")
	}
	if _, ok := (&Post{}).StickerFileID(); ok {
		t.Fatal("empty post must not yield a file id")
	}
}
