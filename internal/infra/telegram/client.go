// internal/infra/telegram/client.go
package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/telebot.v3"
)

// maxMessageRunes is the Bot API limit for one text message.
const maxMessageRunes = 4096

// sender is the part of *telebot.Bot the notifier needs.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// ChatNotifier delivers operator texts, splitting anything over the message limit
// into several messages sent in order.
type ChatNotifier struct {
	bot      sender
	maxRunes int
}

func NewChatNotifier(b *telebot.Bot) *ChatNotifier {
	return &ChatNotifier{bot: b, maxRunes: maxMessageRunes}
}

// SendMessage sends text to chatID. It stops at the first part that fails.
func (n *ChatNotifier) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	parts := splitMessage(text, n.maxRunes)
	for i, part := range parts {
		if _, err := n.bot.Send(telebot.ChatID(chatID), part, options); err != nil {
			return fmt.Errorf("send part %d/%d to chat %d: %w", i+1, len(parts), chatID, err)
		}
	}
	return nil
}

// splitMessage cuts text into parts of at most limit runes, preferring line breaks.
// A single line longer than limit is cut mid-line.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			n = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
			ln -= limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return parts
}
