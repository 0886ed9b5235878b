// Package e621 implements the client for the e621-compatible tagging
// backend. Every call authenticates with HTTP basic auth and carries
// the configured User-Agent; failed calls surface as *APIError and are
// never retried.
package e621

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"log/slog"

	"github.com/m3rciful/stickerbot/core/config"
	"github.com/m3rciful/stickerbot/core/logger"
)

const errBodyLimit = 512

// APIError reports a non-2xx response from the backend.
type APIError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("e621: %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client talks to the tagging backend.
type Client struct {
	baseURL   string
	userAgent string
	service   Credential
	http      *http.Client
}

// NewClient builds a Client from config. The configured login/api key
// pair is the service account used for searches and account creation;
// per-user credentials are passed per call.
func NewClient(cfg config.E621Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		service:   Credential{Login: cfg.Login, APIKey: cfg.APIKey},
		http:      httpClient,
	}
}

// SearchPosts runs a tag search. Page numbering starts at 1.
func (c *Client) SearchPosts(ctx context.Context, tags string, page, limit int) (*Posts, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("tags", tags)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out Posts
	start := time.Now()
	err := c.do(ctx, http.MethodGet, "/posts.json?"+q.Encode(), nil, c.service, &out)
	if err != nil {
		return nil, err
	}
	logger.E621.Debug("search done",
		slog.String("event", "e621.search"),
		slog.String("query", logger.SanitizeLimit(tags, 128)),
		slog.Int("page", page),
		slog.Int("count", len(out.Posts)),
		slog.Duration("duration", logger.Took(start)),
	)
	return &out, nil
}

type uploadEnvelope struct {
	Upload UploadRequest `json:"upload"`
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	Location string `json:"location"`
	PostID   int    `json:"post_id"`
}

// CreatePost uploads a new asset and returns the created post id.
// The request runs under the uploading user's credential so backend
// attribution points at them, not the service account.
func (c *Client) CreatePost(ctx context.Context, req UploadRequest, cred Credential) (int, error) {
	var out uploadResponse
	start := time.Now()
	err := c.do(ctx, http.MethodPost, "/uploads.json", uploadEnvelope{Upload: req}, cred, &out)
	if err != nil {
		return 0, err
	}
	if out.PostID == 0 {
		return 0, fmt.Errorf("e621: upload response carried no post id")
	}
	logger.E621.Info("post created",
		slog.String("event", "e621.upload"),
		slog.Int("post_id", out.PostID),
		slog.Duration("duration", logger.Took(start)),
	)
	return out.PostID, nil
}

type updateEnvelope struct {
	Post struct {
		TagStringDiff string `json:"tag_string_diff"`
	} `json:"post"`
}

// UpdatePost applies a tag diff ("tag1 tag2 -removed") to postID.
func (c *Client) UpdatePost(ctx context.Context, postID int, tagDiff string, cred Credential) error {
	var env updateEnvelope
	env.Post.TagStringDiff = tagDiff
	start := time.Now()
	err := c.do(ctx, http.MethodPatch, "/posts/"+strconv.Itoa(postID)+".json", env, cred, nil)
	if err != nil {
		return err
	}
	logger.E621.Info("post updated",
		slog.String("event", "e621.update"),
		slog.Int("post_id", postID),
		slog.String("tags", logger.SanitizeLimit(tagDiff, 256)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

type createUserEnvelope struct {
	User struct {
		Name                 string `json:"name"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	} `json:"user"`
}

type createUserResponse struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// CreateUser provisions a backend account and returns its api key.
func (c *Client) CreateUser(ctx context.Context, name, password string) (string, error) {
	var env createUserEnvelope
	env.User.Name = name
	env.User.Password = password
	env.User.PasswordConfirmation = password

	var out createUserResponse
	if err := c.do(ctx, http.MethodPost, "/users.json", env, c.service, &out); err != nil {
		return "", err
	}
	if out.APIKey == "" {
		return "", fmt.Errorf("e621: user response carried no api key")
	}
	logger.E621.Info("user provisioned",
		slog.String("event", "e621.provision"),
		slog.String("username", name),
	)
	return out.APIKey, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, cred Credential, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("e621: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("e621: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred.Login != "" {
		req.SetBasicAuth(cred.Login, cred.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("e621: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return &APIError{
			Status: resp.StatusCode,
			Method: method,
			Path:   path,
			Body:   logger.Sanitize(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("e621: decode response: %w", err)
	}
	return nil
}
