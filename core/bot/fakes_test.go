package bot

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/stickerbot/core/config"
	"github.com/m3rciful/stickerbot/core/e621"
	"github.com/m3rciful/stickerbot/core/session"
	"github.com/m3rciful/stickerbot/core/telegramapi"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[int64]*session.Session

	pendingCalls int
	ageCalls     int
	keyCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[int64]*session.Session)}
}

func (f *fakeStore) row(userID int64) *session.Session {
	s, ok := f.sessions[userID]
	if !ok {
		s = &session.Session{UserID: userID}
		f.sessions[userID] = s
	}
	return s
}

func (f *fakeStore) Get(_ context.Context, userID int64) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *f.row(userID)
	return &copied, nil
}

func (f *fakeStore) SetPending(_ context.Context, userID int64, postID int, fileKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingCalls++
	s := f.row(userID)
	s.PendingPostID = sql.NullInt64{Int64: int64(postID), Valid: true}
	s.PendingFileKey = sql.NullString{String: fileKey, Valid: true}
	return nil
}

func (f *fakeStore) SetAgeVerified(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ageCalls++
	s := f.row(userID)
	if s.AgeVerified {
		return false, nil
	}
	s.AgeVerified = true
	return true, nil
}

func (f *fakeStore) SetAPIKey(_ context.Context, userID int64, apiKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyCalls++
	s := f.row(userID)
	s.E621APIKey = sql.NullString{String: apiKey, Valid: true}
	return nil
}

type updateCall struct {
	postID int
	diff   string
	login  string
}

type fakeMedia struct {
	mu sync.Mutex

	results  map[string][]e621.Post
	createID int

	searchErr error

	searches []string
	creates  []e621.UploadRequest
	updates  []updateCall
	users    []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{results: make(map[string][]e621.Post), createID: 100}
}

func (f *fakeMedia) SearchPosts(_ context.Context, tags string, _, _ int) (*e621.Posts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.searches = append(f.searches, tags)
	return &e621.Posts{Posts: f.results[tags]}, nil
}

func (f *fakeMedia) CreatePost(_ context.Context, req e621.UploadRequest, _ e621.Credential) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	return f.createID, nil
}

func (f *fakeMedia) UpdatePost(_ context.Context, postID int, tagDiff string, cred e621.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{postID: postID, diff: tagDiff, login: cred.Login})
	return nil
}

func (f *fakeMedia) CreateUser(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, name)
	return "key-" + name, nil
}

type fakeFiles struct{}

func (fakeFiles) ResolveFile(_ context.Context, fileID string) (*telegramapi.FileInfo, error) {
	return &telegramapi.FileInfo{FileID: fileID, FilePath: "stickers/" + fileID + ".webp"}, nil
}

func (fakeFiles) FileURL(filePath string) string {
	return "https://api.telegram.test/file/bot123/" + filePath
}

const testOperatorChat int64 = 777

func newTestBot(store *fakeStore, media *fakeMedia) *Bot {
	cfg := &config.Config{}
	cfg.Telegram.BotName = "StickerManBot"
	cfg.Operator.ChatID = testOperatorChat
	return New(cfg, store, media, fakeFiles{})
}

func stickerMessage(userID int64, uniqueID, fileID, setName string) *tele.Message {
	return &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
		Sticker: &tele.Sticker{
			File:    tele.File{FileID: fileID, UniqueID: uniqueID},
			SetName: setName,
		},
	}
}

func textMessage(userID int64, text string) *tele.Message {
	return &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
		Text:   text,
	}
}

func messageUpdate(id int, m *tele.Message) *tele.Update {
	return &tele.Update{ID: id, Message: m}
}

func asMessage(t *testing.T, r Reply) *messageReply {
	t.Helper()
	mr, ok := r.(*messageReply)
	if !ok {
		t.Fatalf("expected *messageReply, got %T", r)
	}
	return mr
}
