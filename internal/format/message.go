package format

import (
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is plain text plus Telegram entities. Building entities instead
// of Markdown means medicine names never need escaping.
type Message struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len calculates the UTF-16 length of a string.
// Telegram measures entity offsets and lengths in UTF-16 code units.
func UTF16Len(s string) int {
	length := 0
	for _, b := range []byte(s) {
		if (b & 0xc0) != 0x80 {
			if b >= 0xf0 {
				length += 2 // surrogate pair
			} else {
				length++
			}
		}
	}
	return length
}

// Builder accumulates text and styled spans.
type Builder struct {
	sb       strings.Builder
	offset   int
	entities []tgbotapi.MessageEntity
}

func (b *Builder) Text(s string) *Builder {
	b.sb.WriteString(s)
	b.offset += UTF16Len(s)
	return b
}

func (b *Builder) Bold(s string) *Builder {
	return b.styled("bold", s)
}

func (b *Builder) Italic(s string) *Builder {
	return b.styled("italic", s)
}

func (b *Builder) Code(s string) *Builder {
	return b.styled("code", s)
}

func (b *Builder) Line() *Builder {
	return b.Text("\n")
}

func (b *Builder) styled(kind, s string) *Builder {
	if s == "" {
		return b
	}
	b.entities = append(b.entities, tgbotapi.MessageEntity{
		Type:   kind,
		Offset: b.offset,
		Length: UTF16Len(s),
	})
	return b.Text(s)
}

// Build returns the message with trailing whitespace trimmed and entities
// ordered by offset, as Telegram requires.
func (b *Builder) Build() Message {
	text := strings.TrimRight(b.sb.String(), " \n")
	entities := append([]tgbotapi.MessageEntity(nil), b.entities...)
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Offset < entities[j].Offset
	})
	return Message{Text: text, Entities: entities}
}

// Chattable turns the message into a sendable Telegram message.
func (m Message) Chattable(chatID int64) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, m.Text)
	msg.Entities = m.Entities
	return msg
}
