package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

const (
	ageGateUnique = "age_verify"

	acceptPayload  = "true"
	declinePayload = "false"
)

// parseCallbackData parses <unique>|<payload> callback data, tolerating
// Telebot's \f prefix so buttons sent by either encoding dispatch the
// same way.
func parseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	unique := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// ageGateMarkup builds the accept/decline keyboard shown to unverified
// users before any backend content is exposed.
func ageGateMarkup() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: "I am 18 or older", Data: ageGateUnique + "|" + acceptPayload},
			{Text: "I am under 18", Data: ageGateUnique + "|" + declinePayload},
		}},
	}
}
