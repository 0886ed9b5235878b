package bot

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageReplyJSON(t *testing.T) {
	m := newMessage(42, "hello")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"method":"sendMessage"`, `"chat_id":42`, `"text":"hello"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in %s", want, s)
		}
	}
	if strings.Contains(s, "parse_mode") || strings.Contains(s, "reply_markup") {
		t.Fatalf("empty optional fields must be omitted: %s", s)
	}
}

func TestMarkdownMessageJSON(t *testing.T) {
	m := newMarkdownMessage(42, "*hi*")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"parse_mode":"Markdown"`) {
		t.Fatalf("parse mode missing: %s", data)
	}
}

func TestInlineReplyJSON(t *testing.T) {
	r := &inlineReply{
		Method:  "answerInlineQuery",
		QueryID: "q1",
		Results: []stickerResult{{Type: "sticker", ID: "7", StickerFileID: "file7"}},
		Button:  &resultsButton{Text: "verify", StartParameter: "verify"},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"method":"answerInlineQuery"`,
		`"inline_query_id":"q1"`,
		`"type":"sticker"`,
		`"sticker_file_id":"file7"`,
		`"start_parameter":"verify"`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in %s", want, s)
		}
	}
}

func TestAgeGateMarkupPayloads(t *testing.T) {
	markup := ageGateMarkup()
	row := markup.InlineKeyboard[0]
	if row[0].Data != "age_verify|true" || row[1].Data != "age_verify|false" {
		t.Fatalf("unexpected callback payloads: %q, %q", row[0].Data, row[1].Data)
	}
}
