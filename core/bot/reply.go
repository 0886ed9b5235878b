package bot

import tele "gopkg.in/telebot.v4"

// Reply is a Bot API call serialized into the webhook HTTP response.
// The "method" field tells Telegram which call to execute. A nil Reply
// means the update is acknowledged with an empty 200.
type Reply interface {
	replyMethod() string
}

type messageReply struct {
	Method    string            `json:"method"`
	ChatID    int64             `json:"chat_id"`
	Text      string            `json:"text"`
	ParseMode string            `json:"parse_mode,omitempty"`
	Markup    *tele.ReplyMarkup `json:"reply_markup,omitempty"`
}

func (messageReply) replyMethod() string { return "sendMessage" }

func newMessage(chatID int64, text string) *messageReply {
	return &messageReply{Method: "sendMessage", ChatID: chatID, Text: text}
}

func newMarkdownMessage(chatID int64, text string) *messageReply {
	m := newMessage(chatID, text)
	m.ParseMode = "Markdown"
	return m
}

type stickerResult struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	StickerFileID string `json:"sticker_file_id"`
}

type resultsButton struct {
	Text           string `json:"text"`
	StartParameter string `json:"start_parameter"`
}

type inlineReply struct {
	Method     string          `json:"method"`
	QueryID    string          `json:"inline_query_id"`
	Results    []stickerResult `json:"results"`
	CacheTime  int             `json:"cache_time"`
	IsPersonal bool            `json:"is_personal"`
	NextOffset string          `json:"next_offset"`
	Button     *resultsButton  `json:"button,omitempty"`
}

func (inlineReply) replyMethod() string { return "answerInlineQuery" }
