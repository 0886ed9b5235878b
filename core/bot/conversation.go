package bot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/m3rciful/stickerbot/core/e621"
	"github.com/m3rciful/stickerbot/core/format"
	"github.com/m3rciful/stickerbot/core/logger"
	"github.com/m3rciful/stickerbot/core/session"
)

const uploadRating = "q"

func (b *Bot) handleMessage(ctx context.Context, m *tele.Message) (Reply, error) {
	if m.Sender == nil || m.Chat == nil {
		return nil, nil
	}
	userID := m.Sender.ID
	chatID := m.Chat.ID

	unlock := b.locks.Lock(userID)
	defer unlock()

	sess, err := b.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		text = strings.TrimSpace(m.Caption)
	}

	switch {
	case m.Sticker != nil:
		return b.handleSticker(ctx, sess, m, text)
	case strings.HasPrefix(text, "/"):
		return b.handleCommand(ctx, sess, chatID, text)
	case text != "" && sess.HasPending():
		return b.appendTags(ctx, sess, chatID, text)
	default:
		return b.greeting(chatID), nil
	}
}

// handleSticker is the intake transition. An unseen sticker becomes a
// new backend post and the session's pending pointer; a seen one only
// moves the pending pointer. Text arriving together with the sticker
// is applied as a tag diff right after intake, exactly as if it had
// been sent as the next message.
func (b *Bot) handleSticker(ctx context.Context, sess *session.Session, m *tele.Message, text string) (Reply, error) {
	st := m.Sticker
	chatID := m.Chat.ID

	posts, err := b.media.SearchPosts(ctx, "source:"+st.UniqueID, 1, 1)
	if err != nil {
		return nil, err
	}

	var (
		reply Reply
		post  *e621.Post
	)
	if len(posts.Posts) > 0 {
		post = &posts.Posts[0]
		logger.Debug(ctx, "bot", "sticker.known",
			slog.String("unique_id", st.UniqueID),
			slog.Int("post_id", post.ID),
		)
		reply = b.knownStickerReply(chatID, post)
	} else {
		created, err := b.createPost(ctx, sess, m)
		if err != nil {
			return nil, err
		}
		post = &e621.Post{ID: created}
		logger.Info(ctx, "bot", "sticker.created",
			slog.String("unique_id", st.UniqueID),
			slog.String("set_name", st.SetName),
			slog.Int("post_id", created),
		)
		reply = newMessage(chatID, intakePrompt)
	}

	if err := b.sessions.SetPending(ctx, sess.UserID, post.ID, st.UniqueID); err != nil {
		return nil, err
	}
	sess.PendingPostID = sql.NullInt64{Int64: int64(post.ID), Valid: true}
	sess.PendingFileKey = sql.NullString{String: st.UniqueID, Valid: true}

	if text != "" && !strings.HasPrefix(text, "/") {
		return b.appendTags(ctx, sess, chatID, text)
	}
	return reply, nil
}

// createPost uploads the sticker asset and returns the new post id.
// Animated and video stickers cannot be fetched as images, so their
// static thumbnail is uploaded instead; the source annotation always
// carries the original sticker file id.
func (b *Bot) createPost(ctx context.Context, sess *session.Session, m *tele.Message) (int, error) {
	st := m.Sticker
	animated := st.Animated || st.Video

	uploadID := st.FileID
	if animated {
		if st.Thumbnail == nil {
			return 0, fmt.Errorf("animated sticker %s has no thumbnail to upload", st.UniqueID)
		}
		uploadID = st.Thumbnail.FileID
	}

	info, err := b.files.ResolveFile(ctx, uploadID)
	if err != nil {
		return 0, err
	}

	cred, err := b.ensureCredential(ctx, sess)
	if err != nil {
		return 0, err
	}

	var tags []string
	if st.SetName != "" {
		tags = append(tags, "Copyright:"+st.SetName)
	}
	if animated {
		tags = append(tags, "animated")
	}

	req := e621.UploadRequest{
		DirectURL: b.files.FileURL(info.FilePath),
		TagString: strings.Join(tags, " "),
		Source:    e621.EncodeSource(st.UniqueID, st.FileID, userLink(sess.UserID)),
		Rating:    uploadRating,
	}
	return b.media.CreatePost(ctx, req, cred)
}

// appendTags applies the message text as a whitespace tag diff to the
// session's pending post.
func (b *Bot) appendTags(ctx context.Context, sess *session.Session, chatID int64, text string) (Reply, error) {
	diff := strings.Join(strings.Fields(text), " ")
	if diff == "" {
		return b.greeting(chatID), nil
	}
	if !sess.HasPending() {
		return b.greeting(chatID), nil
	}

	cred, err := b.ensureCredential(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := b.media.UpdatePost(ctx, int(sess.PendingPostID.Int64), diff, cred); err != nil {
		return nil, err
	}
	return newMessage(chatID, tagAckText), nil
}

// ensureCredential returns the user's backend credential, provisioning
// a backend account on first use. The account name is derived from the
// user id so repeated provisioning attempts target the same account.
func (b *Bot) ensureCredential(ctx context.Context, sess *session.Session) (e621.Credential, error) {
	name := accountName(sess.UserID)
	if sess.HasAPIKey() {
		return e621.Credential{Login: name, APIKey: sess.E621APIKey.String}, nil
	}

	key, err := b.media.CreateUser(ctx, name, uuid.NewString())
	if err != nil {
		return e621.Credential{}, fmt.Errorf("provision backend account: %w", err)
	}
	if err := b.sessions.SetAPIKey(ctx, sess.UserID, key); err != nil {
		return e621.Credential{}, err
	}
	sess.E621APIKey = sql.NullString{String: key, Valid: true}
	return e621.Credential{Login: name, APIKey: key}, nil
}

func accountName(userID int64) string {
	return fmt.Sprintf("tg_%d", userID)
}

func (b *Bot) handleCommand(ctx context.Context, sess *session.Session, chatID int64, text string) (Reply, error) {
	fields := strings.Fields(text)
	cmd := fields[0]
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}

	switch cmd {
	case "/start":
		if len(fields) > 1 && fields[1] == startParamVerify {
			return b.verifyAge(ctx, sess, chatID)
		}
		if sess.AgeVerified {
			return b.greeting(chatID), nil
		}
		gate := newMessage(chatID, ageGatePrompt)
		gate.Markup = ageGateMarkup()
		return gate, nil
	case "/help":
		return b.greeting(chatID), nil
	default:
		return b.greeting(chatID), nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tele.Callback) (Reply, error) {
	if cb.Sender == nil {
		return nil, nil
	}
	userID := cb.Sender.ID
	chatID := userID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	unlock := b.locks.Lock(userID)
	defer unlock()

	unique, payload := parseCallbackData(cb)
	if unique != ageGateUnique || payload != acceptPayload {
		logger.Debug(ctx, "bot", "age_gate.declined",
			slog.String("payload", logger.SanitizeLimit(cb.Data, 64)),
		)
		return newMessage(chatID, ageDeclinedText), nil
	}

	// Unlike the /start deep link, the button path answers with the
	// plain greeting even on first verification.
	fresh, err := b.sessions.SetAgeVerified(ctx, userID)
	if err != nil {
		return nil, err
	}
	if fresh {
		logger.Info(ctx, "bot", "age_gate.verified", slog.Int64("user_id", userID))
	}
	return b.greeting(chatID), nil
}

// verifyAge sets the verified flag. The flag never goes back to false;
// only the first verification gets the confirmation text, repeats get
// the plain greeting.
func (b *Bot) verifyAge(ctx context.Context, sess *session.Session, chatID int64) (Reply, error) {
	fresh, err := b.sessions.SetAgeVerified(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.AgeVerified = true
	if fresh {
		logger.Info(ctx, "bot", "age_gate.verified", slog.Int64("user_id", sess.UserID))
		return newMessage(chatID, ageVerifiedText), nil
	}
	return b.greeting(chatID), nil
}

func (b *Bot) greeting(chatID int64) Reply {
	return newMessage(chatID, greetingText(b.botName))
}

// knownStickerReply renders the existing tags of a seen sticker.
// Copyright tags come out as clickable hashtags, everything else is
// escaped so raw tag text cannot break the Markdown.
func (b *Bot) knownStickerReply(chatID int64, post *e621.Post) Reply {
	var sb strings.Builder
	sb.WriteString("I know this sticker already.\n")
	if general := format.JoinTags(post.Tags.General, false); general != "" {
		sb.WriteString("\nTags: ")
		sb.WriteString(general)
	}
	if sets := format.JoinTags(post.Tags.Copyright, true); sets != "" {
		sb.WriteString("\nFrom: ")
		sb.WriteString(sets)
	}
	sb.WriteString("\n\nSend more tags to add them to this sticker.")
	return newMarkdownMessage(chatID, sb.String())
}
