package bot

import (
	"context"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/m3rciful/stickerbot/core/logger"
)

const inlinePageSize = 50

func (b *Bot) handleInline(ctx context.Context, q *tele.Query) (Reply, error) {
	if q.Sender == nil {
		return nil, nil
	}

	sess, err := b.sessions.Get(ctx, q.Sender.ID)
	if err != nil {
		return nil, err
	}

	// Unverified users get no results and a deep-link button into the
	// verification flow. The backend is never consulted for them.
	if !sess.AgeVerified {
		logger.Debug(ctx, "bot", "inline.gated", slog.Int64("user_id", q.Sender.ID))
		return &inlineReply{
			Method:     "answerInlineQuery",
			QueryID:    q.ID,
			Results:    []stickerResult{},
			IsPersonal: true,
			Button:     &resultsButton{Text: inlineGateButtonText, StartParameter: startParamVerify},
		}, nil
	}

	page := parseOffset(q.Offset)
	query := searchQuery(q.Text)

	posts, err := b.media.SearchPosts(ctx, query, page, inlinePageSize)
	if err != nil {
		return nil, err
	}

	results := make([]stickerResult, 0, len(posts.Posts))
	for _, p := range posts.Posts {
		fileID, ok := p.StickerFileID()
		if !ok {
			// Records without the file handle slot cannot be served.
			continue
		}
		results = append(results, stickerResult{
			Type:          "sticker",
			ID:            strconv.Itoa(p.ID),
			StickerFileID: fileID,
		})
	}

	nextOffset := ""
	if len(posts.Posts) == inlinePageSize {
		nextOffset = strconv.Itoa(page + 1)
	}

	logger.Debug(ctx, "bot", "inline.answered",
		slog.String("query", logger.SanitizeLimit(q.Text, 128)),
		slog.Int("page", page),
		slog.Int("count", len(results)),
	)
	return &inlineReply{
		Method:     "answerInlineQuery",
		QueryID:    q.ID,
		Results:    results,
		IsPersonal: true,
		NextOffset: nextOffset,
	}, nil
}

// parseOffset maps the inline query offset to a page number. Pages
// start at 1; anything unparseable means the first page.
func parseOffset(offset string) int {
	page, err := strconv.Atoi(strings.TrimSpace(offset))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// searchQuery turns the typed query into a backend tag expression. The
// trailing wildcard makes the last word match as a prefix, so results
// appear while the user is still typing.
func searchQuery(text string) string {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return ""
	}
	return text + "*"
}
