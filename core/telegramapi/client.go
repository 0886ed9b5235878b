// Package telegramapi holds the direct Bot API calls the webhook reply
// channel cannot express. Today that is getFile, needed to turn a
// sticker's file id into a downloadable URL before upload.
package telegramapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/m3rciful/stickerbot/core/config"
	"github.com/m3rciful/stickerbot/core/logger"
)

// APIError reports an ok=false Bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed with code %d: %s", e.Method, e.Code, e.Description)
}

// FileInfo is the result of a getFile call.
type FileInfo struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size"`
	FilePath     string `json:"file_path"`
}

type getFileResponse struct {
	OK          bool     `json:"ok"`
	ErrorCode   int      `json:"error_code"`
	Description string   `json:"description"`
	Result      FileInfo `json:"result"`
}

// Client calls the Bot API outside of the webhook reply channel.
type Client struct {
	apiURL string
	token  string
	http   *http.Client
}

// NewClient builds a Client from config.
func NewClient(cfg config.TelegramConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiURL: cfg.APIURL,
		token:  cfg.Token,
		http:   httpClient,
	}
}

// ResolveFile asks the Bot API for the storage path behind fileID.
// An ok=false answer is returned as *APIError; the caller must not
// proceed to upload in that case.
func (c *Client) ResolveFile(ctx context.Context, fileID string) (*FileInfo, error) {
	body, err := json.Marshal(map[string]string{"file_id": fileID})
	if err != nil {
		return nil, fmt.Errorf("telegram: encode getFile: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/getFile", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: build getFile: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: getFile: %w", err)
	}
	defer resp.Body.Close()

	var out getFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("telegram: decode getFile: %w", err)
	}
	if !out.OK {
		logger.TG.Warn("getFile rejected",
			slog.String("event", "tg.get_file"),
			slog.String("file_id", fileID),
			slog.Int("err_code", out.ErrorCode),
			slog.String("err", out.Description),
		)
		return nil, &APIError{Method: "getFile", Code: out.ErrorCode, Description: out.Description}
	}
	if out.Result.FilePath == "" {
		return nil, &APIError{Method: "getFile", Description: "empty file_path in result"}
	}

	logger.TG.Debug("file resolved",
		slog.String("event", "tg.get_file"),
		slog.String("file_id", fileID),
		slog.String("unique_id", out.Result.FileUniqueID),
		slog.Duration("duration", logger.Took(start)),
	)
	return &out.Result, nil
}

// FileURL returns the direct download URL for a resolved file path.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.token, filePath)
}
