// Package bot turns incoming Telegram updates into webhook reply
// payloads. It owns the conversation state machine, the age-gated
// inline search, and the per-user locking around session writes.
package bot

import (
	"context"

	"github.com/m3rciful/stickerbot/core/config"
	"github.com/m3rciful/stickerbot/core/e621"
	"github.com/m3rciful/stickerbot/core/session"
	"github.com/m3rciful/stickerbot/core/telegramapi"
)

// SessionStore is the slice of the session store the bot depends on.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*session.Session, error)
	SetPending(ctx context.Context, userID int64, postID int, fileKey string) error
	SetAgeVerified(ctx context.Context, userID int64) (bool, error)
	SetAPIKey(ctx context.Context, userID int64, apiKey string) error
}

// MediaBackend is the tagging backend surface the bot uses.
type MediaBackend interface {
	SearchPosts(ctx context.Context, tags string, page, limit int) (*e621.Posts, error)
	CreatePost(ctx context.Context, req e621.UploadRequest, cred e621.Credential) (int, error)
	UpdatePost(ctx context.Context, postID int, tagDiff string, cred e621.Credential) error
	CreateUser(ctx context.Context, name, password string) (string, error)
}

// FileResolver resolves Telegram file ids into downloadable URLs.
type FileResolver interface {
	ResolveFile(ctx context.Context, fileID string) (*telegramapi.FileInfo, error)
	FileURL(filePath string) string
}

// Bot routes updates and runs the conversation engine.
type Bot struct {
	sessions SessionStore
	media    MediaBackend
	files    FileResolver
	locks    *userLocks

	botName      string
	operatorChat int64
}

// New wires a Bot from its dependencies.
func New(cfg *config.Config, sessions SessionStore, media MediaBackend, files FileResolver) *Bot {
	return &Bot{
		sessions:     sessions,
		media:        media,
		files:        files,
		locks:        newUserLocks(),
		botName:      cfg.Telegram.BotName,
		operatorChat: cfg.Operator.ChatID,
	}
}
