package chat

// Message is one entry of a chat transcript. Position is its only identity.
type Message struct {
	Text  string `json:"text"`
	IsBot bool   `json:"isBot"`
}

// UserMessage builds a visitor-authored entry.
func UserMessage(text string) Message {
	return Message{Text: text}
}

// BotMessage builds an assistant-authored entry.
func BotMessage(text string) Message {
	return Message{Text: text, IsBot: true}
}
