package bot

import "fmt"

const (
	startParamVerify = "verify"

	intakePrompt = "Now send me the tags you'd like to add to this sticker."

	tagAckText = "Tags added. Send more tags to keep going, or send another sticker."

	ageGatePrompt = "The content behind this bot is age restricted.\n" +
		"Please confirm that you are 18 years of age or older."

	ageVerifiedText = "Thank you, you are verified.\n" +
		"You can now tag stickers and search for them in any chat."

	ageDeclinedText = "Sorry, this bot can only be used by adults."

	inlineGateButtonText = "Verify your age to search stickers"
)

func greetingText(botName string) string {
	handle := "@" + botName
	if botName == "" {
		handle = "this bot"
	}
	return "Hi, I'm Sticker Manager Bot.\n" +
		"I'll help you manage your stickers by letting you tag them so you can easily find them later.\n" +
		"\n" +
		"Usage:\n" +
		"To add a sticker tag, first send me a sticker to this chat, then send the tags you'd like to add to the sticker.\n" +
		"\n" +
		"You can then easily search for tagged stickers in any chat. Just type: " + handle +
		" followed by the tags of the stickers that you are looking for."
}

func userLink(userID int64) string {
	return fmt.Sprintf("tg://user?id=%d", userID)
}
