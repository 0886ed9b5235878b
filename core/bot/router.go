package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/m3rciful/stickerbot/core/logger"
)

const diagnosticLimit = 3500

// Handle turns one update into at most one reply payload. Errors and
// panics never escape: they become a diagnostic message to the operator
// chat, so the webhook endpoint can always answer 200.
func (b *Bot) Handle(ctx context.Context, u *tele.Update) (reply Reply) {
	start := time.Now()
	ctx = b.withUpdateContext(ctx, u)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			logger.Error(ctx, "bot", "update.panic",
				slog.String("err", err.Error()),
				slog.String("payload", logger.SanitizeLimit(string(debug.Stack()), 2000)),
			)
			reply = b.operatorDiagnostic(u, err, debug.Stack())
		}
	}()

	kind, reply, err := b.dispatch(ctx, u)
	if err != nil {
		logger.Error(ctx, "bot", "update.failed",
			slog.String("kind", kind),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return b.operatorDiagnostic(u, err, nil)
	}

	logger.Info(ctx, "bot", "update.handled",
		slog.String("kind", kind),
		slog.String("outcome", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return reply
}

func (b *Bot) dispatch(ctx context.Context, u *tele.Update) (string, Reply, error) {
	switch {
	case u.Message != nil:
		m := substituteReply(u.Message)
		ctx = logger.WithHandler(ctx, "message")
		reply, err := b.handleMessage(ctx, m)
		return "message", reply, err
	case u.Query != nil:
		ctx = logger.WithHandler(ctx, "inline")
		reply, err := b.handleInline(ctx, u.Query)
		return "inline", reply, err
	case u.Callback != nil:
		ctx = logger.WithHandler(ctx, "callback")
		reply, err := b.handleCallback(ctx, u.Callback)
		return "callback", reply, err
	default:
		// Unsupported update kinds are acknowledged without a reply.
		return "other", nil, nil
	}
}

// substituteReply folds a text reply to a sticker message into a single
// synthetic message: the parent's sticker with the child's text, sender
// and chat. One level only, handled before classification.
func substituteReply(m *tele.Message) *tele.Message {
	if m.ReplyTo == nil || m.ReplyTo.Sticker == nil || m.Text == "" {
		return m
	}
	merged := *m
	merged.Sticker = m.ReplyTo.Sticker
	merged.ReplyTo = nil
	return &merged
}

func (b *Bot) withUpdateContext(ctx context.Context, u *tele.Update) context.Context {
	var userID, chatID int64
	switch {
	case u.Message != nil:
		if u.Message.Sender != nil {
			userID = u.Message.Sender.ID
		}
		if u.Message.Chat != nil {
			chatID = u.Message.Chat.ID
		}
	case u.Query != nil:
		if u.Query.Sender != nil {
			userID = u.Query.Sender.ID
		}
	case u.Callback != nil:
		if u.Callback.Sender != nil {
			userID = u.Callback.Sender.ID
		}
		if u.Callback.Message != nil && u.Callback.Message.Chat != nil {
			chatID = u.Callback.Message.Chat.ID
		}
	}
	ctx = logger.WithRID(ctx, logger.BuildRID(u.ID, chatID, userID))
	return logger.WithUpdateMeta(ctx, u.ID, userID, chatID)
}

// operatorDiagnostic routes a failure to the operator chat with enough
// context to replay it: the error, the serialized update, and the stack
// for panics.
func (b *Bot) operatorDiagnostic(u *tele.Update, err error, stack []byte) Reply {
	var sb []byte
	sb = append(sb, "Update failed: "...)
	sb = append(sb, err.Error()...)

	if raw, jsonErr := json.Marshal(u); jsonErr == nil {
		sb = append(sb, "\n\nUpdate:\n"...)
		sb = append(sb, raw...)
	}
	if len(stack) > 0 {
		sb = append(sb, "\n\nStack:\n"...)
		sb = append(sb, stack...)
	}
	return newMessage(b.operatorChat, logger.SanitizeLimit(string(sb), diagnosticLimit))
}
