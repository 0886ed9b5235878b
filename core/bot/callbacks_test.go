package bot

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		unique  string
		payload string
	}{
		{"plain", "age_verify|true", "age_verify", "true"},
		{"telebot prefix", "\fage_verify|false", "age_verify", "false"},
		{"no payload", "age_verify", "age_verify", ""},
		{"extra separator", "age_verify|a|b", "age_verify", "a|b"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unique, payload := parseCallbackData(&tele.Callback{Data: tc.data})
			if unique != tc.unique || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", unique, payload, tc.unique, tc.payload)
			}
		})
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	unique, payload := parseCallbackData(nil)
	if unique != "" || payload != "" {
		t.Fatalf("nil callback must parse empty, got (%q, %q)", unique, payload)
	}
}
