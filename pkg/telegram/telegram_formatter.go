package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageLength stays a little under Telegram's 4096 character limit.
const MaxMessageLength = 4090

// EscapeMarkdown escapes characters that break legacy Markdown parsing.
func EscapeMarkdown(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

// Bold renders text in Markdown emphasis. Legacy Markdown does not allow escapes
// inside an entity, so every '*' in text closes the entity and is written escaped
// between two bold runs.
func Bold(text string) string {
	return entity("*", text)
}

// Italic renders text in Markdown italics, splitting on '_' the same way as Bold.
func Italic(text string) string {
	return entity("_", text)
}

// Link renders a Markdown hyperlink.
func Link(label, url string) string {
	return "[" + strings.ReplaceAll(label, "]", ")") + "](" + strings.ReplaceAll(url, ")", "%29") + ")"
}

func entity(delim, text string) string {
	var b strings.Builder
	for i, part := range strings.Split(text, delim) {
		if i > 0 {
			b.WriteString(`\` + delim)
		}
		if part != "" {
			b.WriteString(delim + part + delim)
		}
	}
	return b.String()
}

// SplitMessage breaks text into parts no longer than maxLen, cutting at line
// boundaries. A single line longer than maxLen is cut at rune boundaries.
func SplitMessage(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > maxLen {
			flush()
			cut := runeBoundary(line, maxLen)
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > maxLen {
			flush()
		}
		current.WriteString(line)
	}
	flush()

	return parts
}

func runeBoundary(s string, max int) int {
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return max
	}
	return cut
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
